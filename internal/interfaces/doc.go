// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Identity Provider Interfaces
//
//   - CredentialClient: Create and authenticate email/password accounts (internal/auth/interfaces.go)
//   - AdminService: Account lookups and session cookies (internal/auth/interfaces.go)
//
// Two backends implement both: internal/identity/local (accounts in the
// application database) and internal/identity/firebase (Firebase Auth).
//
// ## Data Access Interfaces
//
//   - UserStore: User profiles keyed by account id (internal/auth/interfaces.go)
//   - EventStore: Audit event persistence (internal/audit/service.go)
//
// ## Background Work Interfaces
//
//   - AuditLogger: Auth event recording (internal/auth/handlers.go)
//   - AuditEventCleaner: Audit retention purge (internal/tasks/cleanup_audit.go)
//   - TaskEnqueuer: Task queue producer (internal/scheduler/audit_retention.go)
//
// # Adding a New Identity Provider
//
//  1. Create a package under internal/identity/ implementing CredentialClient
//     and AdminService. Map provider failures to *identity.Error values so the
//     auth form can pick its messages with errors.As:
//
//     func (p *OktaProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Credential, error)
//
//     var _ auth.CredentialClient = (*OktaProvider)(nil)
//     var _ auth.AdminService = (*OktaProvider)(nil)
//
//  2. Add a config.ProviderKind and select it in entrypoint.NewBackend
//
// # Adding a New User Store
//
//  1. Implement Get and Create. Create must be create-if-absent and return
//     entities.ErrRecordExists when a profile with the same id exists:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  2. Add compile-time check:
//
//     var _ auth.UserStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
