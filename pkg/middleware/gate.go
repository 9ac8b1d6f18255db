package middleware

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"notedai/api/pkg/authcookie"
	"notedai/api/pkg/security"

	"github.com/gin-gonic/gin"
)

type PathClass int

const (
	PathOther PathClass = iota
	PathProtected
	PathPublic
)

var (
	// Matched by prefix
	protectedPaths = []string{"/dashboard", "/notes", "/profile"}
	// Matched exactly
	publicPaths = []string{"/", "/login", "/signup", "/forgot-password"}
	// Never gated
	skippedPrefixes = []string{"/api", "/_next/static", "/_next/image", "/favicon.ico"}
)

// ClassifyPath puts a request path into exactly one class.
func ClassifyPath(path string) PathClass {
	for _, p := range protectedPaths {
		if strings.HasPrefix(path, p) {
			return PathProtected
		}
	}

	if slices.Contains(publicPaths, path) {
		return PathPublic
	}

	return PathOther
}

// GateDecision returns where to redirect a page request, or "" to let it
// through. It only looks at its arguments.
func GateDecision(path string, hasCookie, tokenValid bool) string {
	switch ClassifyPath(path) {
	case PathProtected:
		if !hasCookie {
			q := url.Values{}
			q.Set("callbackUrl", path)
			return "/login?" + q.Encode()
		}
	case PathPublic:
		if hasCookie && tokenValid && (path == "/login" || path == "/signup") {
			return "/dashboard"
		}
	}

	return ""
}

func gated(path string) bool {
	for _, p := range skippedPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}

	return true
}

// NewGateMiddleware keeps signed out users away from the dashboard pages
// and signed in users away from the login and signup forms.
func NewGateMiddleware(tokens *security.TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !gated(path) {
			c.Next()
			return
		}

		token := authcookie.Read(c)
		hasCookie := token != ""

		valid := false
		if hasCookie && ClassifyPath(path) == PathPublic {
			_, err := tokens.Verify(token)
			valid = err == nil
		}

		if to := GateDecision(path, hasCookie, valid); to != "" {
			c.Redirect(http.StatusTemporaryRedirect, to)
			c.Abort()
			return
		}

		c.Next()
	}
}
