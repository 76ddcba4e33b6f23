package domain

import "errors"

// Identity errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidOTP         = errors.New("verification link is invalid or has expired")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// Account flow errors.
var (
	ErrPasswordMismatch        = errors.New("passwords do not match")
	ErrAccountInactive         = errors.New("account is not active")
	ErrInvalidVerificationLink = errors.New("invalid verification link")
	ErrNotAuthenticated        = errors.New("not authenticated")
	ErrMissingResetToken       = errors.New("password reset token not found")
	ErrForbidden               = errors.New("access forbidden")
)

// Profile and role errors.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrRoleNotFound    = errors.New("role not found")
	ErrInvalidStatus   = errors.New("invalid profile status")
)

// Document errors.
var (
	ErrNoFile               = errors.New("no file selected")
	ErrInvalidFileType      = errors.New("please upload a PDF, DOC, DOCX, JPG, or PNG file")
	ErrFileTooLarge         = errors.New("please upload a file smaller than 10MB")
	ErrDocumentTypeRequired = errors.New("document type required")
	ErrInvalidDocumentType  = errors.New("unknown document type")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrEmptySearch          = errors.New("please enter a search term")
)
