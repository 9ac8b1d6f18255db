package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"notedai/api/app/auth"
	"notedai/api/app/root"
	"notedai/api/app/session"
	"notedai/api/app/user"
	"notedai/api/internal"
	"notedai/api/pkg/middleware"
	"notedai/api/validators"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxBodySize = 1 << 20

// NewRouter wires every route. Background goroutines owned by the router
// stop when ctx is done.
func NewRouter(ctx context.Context, d *internal.Deps) *gin.Engine {
	validators.Setup()

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     d.Config.CORS,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		middleware.NewGateMiddleware(d.Tokens),
	)

	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = validators.MaxAvatarSize + 1<<20

	jwt := middleware.NewJWTMiddleware(d.Tokens, d.Cookies)
	turnstile := middleware.NewTurnstileMiddleware(d.Turnstile)
	rateLimiter := middleware.RateLimiterMiddleware(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: d.Config.RateLimit,
		Burst:             d.Config.RateLimit * 2,
	})
	bodyLimit := middleware.BodySizeLimiter(maxBodySize)

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
		m.GET("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
	}

	a := m.Group("/auth", bodyLimit)
	{
		// POST /api/auth/signup		-> Registers a new user and logs them in
		a.POST("/signup", turnstile, func(c *gin.Context) { auth.AuthSignup(c, d) })

		// POST /api/auth/login		-> Logs in a user and sets the auth cookie
		a.POST("/login", turnstile, func(c *gin.Context) { auth.AuthLogin(c, d) })

		// POST /api/auth/logout		-> Clears the auth cookie
		a.POST("/logout", func(c *gin.Context) { auth.AuthLogout(c, d) })

		// GET /api/auth/me		-> Returns the signed in user
		a.GET("/me", jwt, func(c *gin.Context) { auth.AuthMe(c, d) })

		// POST /api/auth/verify		-> Verifies an email with a mailed token
		a.POST("/verify", func(c *gin.Context) { auth.AuthVerify(c, d) })

		// POST /api/auth/verify/resend	-> Mails a new verification link
		a.POST("/verify/resend", jwt, func(c *gin.Context) { auth.AuthResendVerification(c, d) })

		// POST /api/auth/forgot-password	-> Mails a password reset link
		a.POST("/forgot-password", turnstile, func(c *gin.Context) { auth.AuthForgotPassword(c, d) })

		// POST /api/auth/reset-password	-> Sets a new password with a mailed token
		a.POST("/reset-password", func(c *gin.Context) { auth.AuthResetPassword(c, d) })
	}

	u := m.Group("/user", jwt)
	{
		// DELETE /api/user/delete	-> Deletes the signed in account
		u.DELETE("/delete", func(c *gin.Context) { user.UserDelete(c, d) })

		// GET /api/user/settings	-> Returns the full profile
		u.GET("/settings", func(c *gin.Context) { user.UserSettingsFetch(c, d) })

		// PUT /api/user/settings	-> Applies one kind of settings update
		u.PUT("/settings", bodyLimit, func(c *gin.Context) { user.UserSettingsUpdate(c, d) })

		// PUT /api/user/avatar		-> Replaces the avatar image
		u.PUT("/avatar", middleware.BodySizeLimiter(validators.MaxAvatarSize+64<<10), func(c *gin.Context) { user.UserAvatarUpdate(c, d) })
	}

	s := m.Group("/sessions", jwt)
	{
		// POST /api/sessions		-> Schedules a live session
		s.POST("", bodyLimit, func(c *gin.Context) { session.SessionCreate(c, d) })

		// GET /api/sessions/upcoming	-> Lists sessions that haven't started yet
		s.GET("/upcoming", func(c *gin.Context) { session.SessionUpcoming(c, d) })
	}

	router.NoRoute(notFound(d.Config.StaticDir))

	return router
}

// notFound serves the frontend build when one is configured. API paths
// always get a JSON 404.
func notFound(staticDir string) gin.HandlerFunc {
	var files http.Handler
	if staticDir != "" {
		files = http.FileServer(http.Dir(staticDir))
	}

	return func(c *gin.Context) {
		p := c.Request.URL.Path

		if files != nil && !strings.HasPrefix(p, "/api") &&
			(c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead) {
			files.ServeHTTP(c.Writer, c.Request)
			return
		}

		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not found",
			"requestID": c.GetString("requestID"),
		})
	}
}
