package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"notedai/api/config"
	"notedai/api/db"
	"notedai/api/internal"
	"notedai/api/internal/model"
	"notedai/api/internal/service"
	"notedai/api/pkg/authcookie"
	"notedai/api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type fakeAvatars struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func (f *fakeAvatars) Put(_ context.Context, userID string, body io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := fmt.Sprintf("avatars/%s/%d", userID, len(f.objects)+len(f.deleted))
	f.objects[key] = b

	return key, nil
}

func (f *fakeAvatars) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.objects, key)
	f.deleted = append(f.deleted, key)

	return nil
}

type testApp struct {
	t       *testing.T
	router  *gin.Engine
	deps    *internal.Deps
	avatars *fakeAvatars
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	argon := &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	store := db.New(db.Options{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
		Hasher: argon,
	})
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		Env:       "test",
		CORS:      []string{"http://localhost:3000"},
		RateLimit: 1000,
	}

	avatars := &fakeAvatars{objects: map[string][]byte{}}

	d := &internal.Deps{
		Config:  cfg,
		Store:   store,
		Argon:   argon,
		Tokens:  security.NewTokenCodec(testSecret),
		Cookies: authcookie.Jar{},
		Mailer:  service.NewMailer(config.MailConfig{}, "http://localhost:3000"),
		Avatars: avatars,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &testApp{
		t:       t,
		router:  NewRouter(ctx, d),
		deps:    d,
		avatars: avatars,
	}
}

func (a *testApp) db() *gorm.DB {
	a.t.Helper()

	tx, err := a.deps.Store.Connect(context.Background())
	require.NoError(a.t, err)

	return tx
}

func (a *testApp) user(email string) model.User {
	a.t.Helper()

	var u model.User
	require.NoError(a.t, a.db().Where("email = ?", email).First(&u).Error)

	return u
}

// beforeUpdate runs fn inside every following UPDATE, after the row was
// loaded and before it is written.
func (a *testApp) beforeUpdate(fn func(tx *gorm.DB)) {
	a.t.Helper()

	err := a.db().Callback().Update().Before("gorm:update").Register("test:before_update", func(tx *gorm.DB) {
		fn(tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}))
	})
	require.NoError(a.t, err)
}

// client is a browser stand-in that keeps the auth cookie between calls.
type client struct {
	app    *testApp
	cookie string
}

func (a *testApp) client() *client {
	return &client{app: a}
}

func (cl *client) send(req *http.Request) *httptest.ResponseRecorder {
	if cl.cookie != "" {
		req.AddCookie(&http.Cookie{Name: authcookie.Name, Value: cl.cookie})
	}

	w := httptest.NewRecorder()
	cl.app.router.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.Name != authcookie.Name {
			continue
		}

		if ck.MaxAge < 0 {
			cl.cookie = ""
		} else {
			cl.cookie = ck.Value
		}
	}

	return w
}

func (cl *client) do(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(cl.app.t, err)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	return cl.send(req)
}

func (cl *client) upload(path, field, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(cl.app.t, err)
	_, err = fw.Write(content)
	require.NoError(cl.app.t, err)
	require.NoError(cl.app.t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return cl.send(req)
}

// signup registers a user and keeps its cookie
func (cl *client) signup(name, email, password string) *httptest.ResponseRecorder {
	cl.app.t.Helper()

	w := cl.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(cl.app.t, http.StatusCreated, w.Code, w.Body.String())

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

func pngBytes(n int) []byte {
	b := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, n)...)
	return b
}

func unreachableStore() *db.Store {
	return db.New(db.Options{
		Driver:         "postgres",
		DSN:            "host=127.0.0.1 port=1 user=noted dbname=noted sslmode=disable connect_timeout=1",
		ConnectTimeout: 2 * time.Second,
		Hasher:         &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
	})
}
