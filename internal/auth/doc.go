// Package auth binds the sign-up and sign-in forms to the identity provider,
// issues the session cookie and guards pages.
//
// Two provider backends are available (see internal/identity):
//
//	AUTH_PROVIDER=local     # Accounts in the application database (default)
//	AUTH_PROVIDER=firebase  # Firebase Auth + Firestore
//
// The session cookie is named "session", lives for AUTH_SESSION_LIFETIME
// (7 days by default) and is marked Secure when APP_ENV=production.
//
// # Usage
//
// Wire the actions in entrypoint:
//
//	actions := auth.NewActions(admin, users, auth.NewCookieOptions(cfg.Auth), logger)
//	guard := auth.NewGuard(actions)
//	form := auth.NewForm(client, actions, cfg.Auth.PasswordMinLength, logger)
//
// Guard pages:
//
//	router.GET("/", guard.Protected(), homeHandler)
//
// Read the user in protected handlers:
//
//	user := auth.CurrentUser(c)
package auth
