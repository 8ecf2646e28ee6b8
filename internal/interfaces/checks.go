package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/prepwise/internal/audit"
	"github.com/mrlokans/prepwise/internal/auth"
	auditRepo "github.com/mrlokans/prepwise/internal/database/audit"
	"github.com/mrlokans/prepwise/internal/database/users"
	http_controllers "github.com/mrlokans/prepwise/internal/http"
	"github.com/mrlokans/prepwise/internal/identity/firebase"
	"github.com/mrlokans/prepwise/internal/identity/local"
	"github.com/mrlokans/prepwise/internal/scheduler"
	"github.com/mrlokans/prepwise/internal/tasks"
)

// =============================================================================
// Identity Providers
// =============================================================================

// CredentialClient implementations
var _ auth.CredentialClient = (*local.Provider)(nil)
var _ auth.CredentialClient = (*firebase.Client)(nil)

// AdminService implementations
var _ auth.AdminService = (*local.Provider)(nil)
var _ auth.AdminService = (*firebase.Admin)(nil)

// =============================================================================
// Data Access Layer
// =============================================================================

// UserStore implementations
var _ auth.UserStore = (*users.Repository)(nil)
var _ auth.UserStore = (*firebase.Store)(nil)

// EventStore implementations
var _ audit.EventStore = (*auditRepo.Repository)(nil)

// =============================================================================
// Background Work
// =============================================================================

// AuditLogger implementations
var _ auth.AuditLogger = (*audit.Service)(nil)

// Audit history readers
var _ auth.AttemptHistory = (*audit.Service)(nil)
var _ http_controllers.AuditHistory = (*audit.Service)(nil)

// AuditEventCleaner implementations
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ scheduler.AuditCleaner = (*audit.Service)(nil)

// TaskEnqueuer implementations
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
