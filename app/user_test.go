package app

import (
	"net/http"
	"testing"
	"time"

	"notedai/api/internal/model"
	"notedai/api/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func settings(updateType string, data any) map[string]any {
	return map[string]any{"updateType": updateType, "data": data}
}

func TestSettings_Fetch(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	w := cl.do(http.MethodGet, "/api/user/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "al@x.com", user["email"])
	assert.Equal(t, "system", user["theme"])
	assert.Equal(t, "free", user["plan"])
	assert.Equal(t, true, user["notificationsEnabled"])
	assert.Equal(t, false, user["isVerified"])
}

func TestSettings_RequiresAuth(t *testing.T) {
	a := newTestApp(t)

	assert.Equal(t, http.StatusUnauthorized, a.client().do(http.MethodGet, "/api/user/settings", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.client().do(http.MethodPut, "/api/user/settings", settings("appearance", map[string]string{"theme": "dark"})).Code)
}

func TestSettings_UnknownUpdateType(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	w := cl.do(http.MethodPut, "/api/user/settings", settings("billing", map[string]string{}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid update type", decode(t, w)["error"])
}

func TestSettings_Profile(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	w := cl.do(http.MethodPut, "/api/user/settings", settings("profile", map[string]string{
		"name":     "  Alan Smith ",
		"bio":      "Writes things down",
		"timezone": "Europe/Berlin",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "Alan Smith", user["name"])
	assert.Equal(t, "Writes things down", user["bio"])
	assert.Equal(t, "Europe/Berlin", user["timezone"])

	// Untouched fields survive, including the password
	stored := a.user("al@x.com")
	assert.Equal(t, model.ThemeSystem, stored.Theme)

	login := a.client().do(http.MethodPost, "/api/auth/login", map[string]string{"email": "al@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, login.Code)
}

func TestSettings_ProfileValidation(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	long := make([]byte, 161)
	for i := range long {
		long[i] = 'a'
	}

	w := cl.do(http.MethodPut, "/api/user/settings", settings("profile", map[string]string{
		"name": "A",
		"bio":  string(long),
	}))
	require.Equal(t, http.StatusBadRequest, w.Code)

	fields := decode(t, w)["fields"].(map[string]any)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "bio")

	assert.Equal(t, "Al Smith", a.user("al@x.com").Name)
}

func TestSettings_PasswordWrongCurrent(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	before := a.user("al@x.com").Password

	w := cl.do(http.MethodPut, "/api/user/settings", settings("password", map[string]string{
		"currentPassword": "not-my-password",
		"newPassword":     "brand-new",
	}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Current password is incorrect", decode(t, w)["error"])

	assert.Equal(t, before, a.user("al@x.com").Password)
}

func TestSettings_PasswordUnchangedIsRejected(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	before := a.user("al@x.com")

	w := cl.do(http.MethodPut, "/api/user/settings", settings("password", map[string]string{
		"currentPassword": "secret1",
		"newPassword":     "secret1",
	}))
	require.Equal(t, http.StatusBadRequest, w.Code)

	fields := decode(t, w)["fields"].(map[string]any)
	assert.Equal(t, "New password must be different from current password", fields["newPassword"])

	after := a.user("al@x.com")
	assert.Equal(t, before.Password, after.Password)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestSettings_PasswordChange(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	before := a.user("al@x.com").Password

	w := cl.do(http.MethodPut, "/api/user/settings", settings("password", map[string]string{
		"currentPassword": "secret1",
		"newPassword":     "brand-new",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password\"")

	after := a.user("al@x.com").Password
	assert.NotEqual(t, before, after)
	assert.NotEqual(t, "brand-new", after)

	ok, err := a.deps.Argon.VerifyPasswd("brand-new", after)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSettings_Notifications(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	w := cl.do(http.MethodPut, "/api/user/settings", settings("notifications", map[string]bool{
		"soundNotificationsEnabled": false,
	}))
	require.Equal(t, http.StatusOK, w.Code)

	stored := a.user("al@x.com")
	assert.True(t, stored.NotificationsEnabled)
	assert.True(t, stored.EmailNotificationsEnabled)
	assert.False(t, stored.SoundNotificationsEnabled)
}

func TestSettings_Appearance(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	w := cl.do(http.MethodPut, "/api/user/settings", settings("appearance", map[string]string{"theme": "neon"}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "theme")

	w = cl.do(http.MethodPut, "/api/user/settings", settings("appearance", map[string]string{"theme": "dark"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ThemeDark, a.user("al@x.com").Theme)
}

func TestAvatar_Upload(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	w := cl.upload("/api/user/avatar", "avatar", "me.png", pngBytes(128))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	first := a.user("al@x.com").Avatar
	require.NotEmpty(t, first)
	assert.Equal(t, first, decode(t, w)["user"].(map[string]any)["avatar"])
	assert.Contains(t, a.avatars.objects, first)

	w = cl.upload("/api/user/avatar", "avatar", "me.png", pngBytes(256))
	require.Equal(t, http.StatusOK, w.Code)

	second := a.user("al@x.com").Avatar
	assert.NotEqual(t, first, second)
	assert.NotContains(t, a.avatars.objects, first)
	assert.Contains(t, a.avatars.deleted, first)

	// Deleting the account takes the avatar along
	w = cl.do(http.MethodDelete, "/api/user/delete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, a.avatars.deleted, second)
}

func TestAvatar_Rejected(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	w := cl.upload("/api/user/avatar", "avatar", "me.txt", []byte("just some text, not an image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = cl.upload("/api/user/avatar", "picture", "me.png", pngBytes(16))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = cl.upload("/api/user/avatar", "avatar", "me.png", pngBytes(validators.MaxAvatarSize+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	assert.Empty(t, a.user("al@x.com").Avatar)
	assert.Empty(t, a.avatars.objects)
}

func TestAvatar_NoStorage(t *testing.T) {
	a := newTestApp(t)
	a.deps.Avatars = nil

	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	w := cl.upload("/api/user/avatar", "avatar", "me.png", pngBytes(16))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDelete_RemovesSessions(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	w := cl.do(http.MethodPost, "/api/sessions", map[string]any{
		"title": "Standup",
		"date":  time.Now().Add(48 * time.Hour).Format("2006-01-02"),
		"time":  "09:30",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = cl.do(http.MethodDelete, "/api/user/delete", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var n int64
	require.NoError(t, a.db().Model(&model.LiveSession{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSettings_DeletedBeforeWrite(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	a.beforeUpdate(func(tx *gorm.DB) {
		require.NoError(t, tx.Exec("DELETE FROM users").Error)
	})

	w := cl.do(http.MethodPut, "/api/user/settings", settings("appearance", map[string]string{"theme": "dark"}))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var n int64
	require.NoError(t, a.db().Model(&model.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSettings_WritesOnlyVariantColumns(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	a.beforeUpdate(func(tx *gorm.DB) {
		require.NoError(t, tx.Exec("UPDATE users SET avatar = ?, name = ?", "avatars/new", "Renamed").Error)
	})

	w := cl.do(http.MethodPut, "/api/user/settings", settings("appearance", map[string]string{"theme": "dark"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u := a.user("al@x.com")
	assert.Equal(t, model.ThemeDark, u.Theme)
	assert.Equal(t, "avatars/new", u.Avatar)
	assert.Equal(t, "Renamed", u.Name)
}

func TestSettings_MissingUserBeforeBody(t *testing.T) {
	a := newTestApp(t)
	cl := a.client()
	cl.signup("Al Smith", "al@x.com", "secret1")

	require.NoError(t, a.db().Exec("DELETE FROM users").Error)

	w := cl.do(http.MethodPut, "/api/user/settings", settings("billing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
