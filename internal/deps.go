package internal

import (
	"notedai/api/config"
	"notedai/api/db"
	"notedai/api/internal/service"
	"notedai/api/pkg/authcookie"
	"notedai/api/pkg/middleware"
	"notedai/api/pkg/security"
)

type Deps struct {
	Config  *config.Config
	Store   *db.Store
	Argon   *security.ArgonHash
	Tokens  *security.TokenCodec
	Cookies authcookie.Jar
	Mailer  *service.Mailer

	// Avatars is nil when no object storage is configured
	Avatars   service.ObjectStore
	Turnstile middleware.TurnstileVerifier
}
