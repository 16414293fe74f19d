// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"
	KeyWarning = "warning"
	KeyInfo    = "info"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"

	// Catalog
	KeyHardwareCreated    = "hardware.created"
	KeyHardwareRetired    = "hardware.retired"
	KeyHardwareNotFound   = "hardware.not_found"
	KeyHardwareSuperseded = "hardware.superseded"
	KeySoftwareCreated    = "software.created"
	KeySoftwareRetired    = "software.retired"
	KeySoftwareNotFound   = "software.not_found"

	// Packages
	KeyPackageCreated     = "package.created"
	KeyPackageUpdated     = "package.updated"
	KeyPackageNotFound    = "package.not_found"
	KeyPackageVersioned   = "package.versioned"
	KeyVersionNotFound    = "package_version.not_found"
	KeyAssignmentCreated  = "assignment.created"
	KeyAssignmentRemoved  = "assignment.removed"
	KeyAssignmentNotFound = "assignment.not_found"

	// License pools
	KeyPoolCreated       = "pool.created"
	KeyPoolNotFound      = "pool.not_found"
	KeySeatAllocated     = "pool.seat_allocated"
	KeySeatsReclaimed    = "pool.seats_reclaimed"
	KeyPoolOverAllocated = "pool.over_allocated"

	// Approvals
	KeyApprovalSubmitted = "approval.submitted"
	KeyApprovalApproved  = "approval.approved"
	KeyApprovalRejected  = "approval.rejected"
	KeyApprovalCancelled = "approval.cancelled"
	KeyApprovalEscalated = "approval.escalated"
	KeyApprovalNotFound  = "approval.not_found"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
)
