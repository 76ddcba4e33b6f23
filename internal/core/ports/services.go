package ports

import (
	"context"
	"io"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// AccountService drives the signup, login and credential update flows.
type AccountService interface {
	SignUp(ctx context.Context, email, password, confirm string) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, domain.SessionView, error)
	SignOut(ctx context.Context, sessionID string) error
	VerifyEmail(ctx context.Context, token, typ string) error
	RequestPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, input UpdatePasswordInput) error
	UpdateEmail(ctx context.Context, view domain.SessionView, newEmail, currentPassword string) error
}

// UpdatePasswordInput covers both the signed-in and the recovery-link paths.
type UpdatePasswordInput struct {
	SessionID     string
	RecoveryToken string
	Password      string
	Confirm       string
}

// UploadInput is a document submitted through the uploader.
type UploadInput struct {
	FileName   string
	Size       int64
	Content    io.Reader
	Type       string
	ClientName string
	Tags       string
}

// ListDocumentsFilter narrows the dashboard list.
type ListDocumentsFilter struct {
	Search string
	Type   string
}

// DocumentList is the dashboard view model.
type DocumentList struct {
	Items []domain.Document    `json:"items"`
	Stats domain.DocumentStats `json:"stats"`
}

// DocumentService manages the per-identity document cache.
type DocumentService interface {
	Upload(ctx context.Context, userID string, input UploadInput) (*domain.Document, error)
	List(ctx context.Context, userID string, filter ListDocumentsFilter) (*DocumentList, error)
	Get(ctx context.Context, userID, id string) (*domain.Document, error)
	Delete(ctx context.Context, userID, id string) error
	RecordSearch(ctx context.Context, userID, term string) ([]string, error)
	RecentSearches(ctx context.Context, userID string) ([]string, error)
}

// AdminOverview is the admin landing view model.
type AdminOverview struct {
	TotalUsers int                          `json:"total_users"`
	ByStatus   map[domain.ProfileStatus]int `json:"by_status"`
	Users      []domain.ManagedUser         `json:"users"`
}

// AdminService backs the user management screens.
type AdminService interface {
	Overview(ctx context.Context, search string) (*AdminOverview, error)
	ListUsers(ctx context.Context) ([]domain.ManagedUser, error)
	GetUser(ctx context.Context, id string) (*domain.ManagedUser, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.ManagedUser, error)
}
