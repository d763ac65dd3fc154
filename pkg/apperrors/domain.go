package apperrors

import (
	"net/http"
)

// ErrNotFound converts a repository miss into a 404.
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message, http.StatusNotFound)
}

func ErrAlreadyExists(err error, domain, message string) *AppError {
	return Wrap(err, CodeAlreadyExists, domain, message, http.StatusConflict)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrInvalidStatus is returned for a lifecycle transition that is not
// allowed from the current state.
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// --- Auth ---

var ErrInvalidUserRole = New(CodeInvalidOperation, "auth", "Invalid user role for this operation", http.StatusForbidden)

var ErrWeakPassword = New(CodeValidationFailed, "validation", "Password is too weak. Minimum 8 characters required.", http.StatusBadRequest)

var ErrEmailAlreadyExists = New(CodeAlreadyExists, "auth", "Email already in use", http.StatusConflict)

var ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Invalid email or password", http.StatusUnauthorized)

var ErrInvalidToken = New(CodeInvalidToken, "auth", "Invalid or expired token", http.StatusUnauthorized)

var ErrUserSuspended = New(CodeForbidden, "auth", "Your account has been suspended", http.StatusForbidden)

var ErrUserNotVerified = New(CodeForbidden, "auth", "Please verify your email address", http.StatusForbidden)

var ErrUserNotFound = New(CodeNotFound, "user", "User not found", http.StatusNotFound)

// --- Profiles ---

var ErrProfileNotFound = New(CodeNotFound, "profile", "Profile not found", http.StatusNotFound)

var ErrProfileNotPublic = New(CodeForbidden, "profile", "This profile is private", http.StatusForbidden)

var ErrFileTooLarge = New(CodeLimitExceeded, "validation", "File size exceeds the allowed limit", http.StatusRequestEntityTooLarge)

var ErrInvalidFileType = New(CodeValidationFailed, "validation", "The provided file type is not allowed", http.StatusUnsupportedMediaType)

// --- Conversations ---

var ErrConversationNotFound = New(CodeNotFound, "conversation", "Conversation not found", http.StatusNotFound)

var ErrConversationAccessDenied = New(CodeForbidden, "conversation", "You are not a participant of this conversation", http.StatusForbidden)

var ErrConversationNotActive = New(CodeInvalidStatus, "conversation", "Conversation is not active", http.StatusConflict)

// --- Service requests ---

var ErrServiceRequestNotFound = New(CodeNotFound, "service_request", "Service request not found", http.StatusNotFound)

var ErrServiceRequestAccessDenied = New(CodeForbidden, "service_request", "You are not a party of this service request", http.StatusForbidden)

var ErrServiceRequestExpired = New(CodeInvalidStatus, "service_request", "Service request has expired", http.StatusConflict)

var ErrProfessionalUnavailable = New(CodeInvalidOperation, "service_request", "Professional is not accepting requests", http.StatusBadRequest)

// --- Payments ---

var ErrPaymentNotFound = New(CodeNotFound, "payment", "Payment not found", http.StatusNotFound)

var ErrInvalidPaymentAmount = New(CodeInvalidOperation, "payment", "Invalid payment amount", http.StatusBadRequest)

var ErrAlreadyPaid = New(CodeConflict, "payment", "Service request is already paid", http.StatusConflict)

var ErrInvalidWebhookSignature = New(CodeInvalidToken, "payment", "Invalid webhook signature", http.StatusBadRequest)

var ErrPaymentProviderUnavailable = New(CodeExternalServiceError, "payment", "Payment provider is temporarily unavailable", http.StatusServiceUnavailable)
