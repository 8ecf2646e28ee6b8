// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── users/           # User profile documents (the users collection)
//	└── audit/           # Authentication audit events
//
// Credential accounts of the self-hosted identity provider live in the same
// database but are owned by internal/identity/local.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./app.db", database.Options{})
//	usersRepo := users.NewRepository(db.DB)
//	err = usersRepo.Create(ctx, &entities.User{ID: uid, Name: name, Email: email})
//
// # Interface Implementations
//
//   - users.Repository: implements auth.UserStore
//   - audit.Repository: backs audit.Service and tasks.AuditEventCleaner
package database
