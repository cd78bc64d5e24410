// Package errors provides custom error types for the Limify API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput           = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound               = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInvalidStateTransition = &AppError{Code: "INVALID_STATE_TRANSITION", Message: "Operation not allowed in the current state", StatusCode: http.StatusConflict}
	ErrInternalServer         = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Plan errors.
var (
	ErrQuotaExceeded = &AppError{Code: "QUOTA_EXCEEDED", Message: "Plan limit reached, upgrade to continue", StatusCode: http.StatusPaymentRequired}
)

// Client errors.
var (
	ErrClientNotFound = &AppError{Code: "CLIENT_NOT_FOUND", Message: "Client not found", StatusCode: http.StatusNotFound}
)

// Category errors.
var (
	ErrCategoryNotFound  = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse     = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing expenses", StatusCode: http.StatusConflict}
	ErrCategoryImmutable = &AppError{Code: "CATEGORY_IMMUTABLE", Message: "Global categories cannot be changed", StatusCode: http.StatusForbidden}
)

// Expense errors.
var (
	ErrExpenseNotFound = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Expense not found", StatusCode: http.StatusNotFound}
)

// Budget errors.
var (
	ErrBudgetNotFound        = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrActivityTotalMismatch = &AppError{Code: "ACTIVITY_TOTAL_MISMATCH", Message: "Activity total does not match time × cost per hour", StatusCode: http.StatusUnprocessableEntity}
	ErrPublicationNotFound   = &AppError{Code: "PUBLICATION_NOT_FOUND", Message: "Publication not found", StatusCode: http.StatusNotFound}
	ErrBudgetNotEditable     = &AppError{Code: "BUDGET_NOT_EDITABLE", Message: "Trashed budgets cannot be changed", StatusCode: http.StatusConflict}
)

// Team errors.
var (
	ErrInviteNotFound      = &AppError{Code: "INVITE_NOT_FOUND", Message: "Invite not found", StatusCode: http.StatusNotFound}
	ErrInviteEmailMismatch = &AppError{Code: "INVITE_EMAIL_MISMATCH", Message: "Invite was sent to a different email", StatusCode: http.StatusForbidden}
	ErrAlreadyTeamMember   = &AppError{Code: "ALREADY_TEAM_MEMBER", Message: "User is already a team member", StatusCode: http.StatusConflict}
	ErrTeamMemberNotFound  = &AppError{Code: "TEAM_MEMBER_NOT_FOUND", Message: "Team member not found", StatusCode: http.StatusNotFound}
	ErrCannotRemoveOwner   = &AppError{Code: "CANNOT_REMOVE_OWNER", Message: "The team owner cannot be removed", StatusCode: http.StatusConflict}
)

