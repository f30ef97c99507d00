// Package auth provides accounts, authentication and authorization.
//
// Browser clients sign in with e-mail and password and get a session cookie
// (scs); API clients send "Authorization: Bearer <token>" with a token
// generated at /api/auth/token. Only SHA-256 hashes of API tokens are stored.
//
// New accounts must confirm their e-mail through a one-time link before they
// can sign in (AUTH_REQUIRE_VERIFIED_EMAIL). Forgotten passwords are reset
// through a second kind of one-time link. Both links carry 64 hex characters
// of randomness, expire (AUTH_VERIFICATION_TOKEN_TTL, AUTH_RESET_TOKEN_TTL)
// and are deleted in the same transaction that applies them.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_TOKEN_EXPIRY=720h              # API token expiry
//	AUTH_BCRYPT_COST=10
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
//	AUTH_MIN_PASSWORD_LENGTH=6
//	AUTH_MAX_LOGIN_ATTEMPTS=5
//
// # Usage
//
//	authService := auth.NewService(db.DB, cfg.Auth, cfg.App.BaseURL, mailer)
//	authMiddleware := auth.NewMiddleware(authService, sessionManager)
//	router.Use(sessionManager.SessionLoadSave(), authMiddleware.Handler())
//
// Extract the user in handlers:
//
//	userID := auth.GetUserID(c)
package auth
