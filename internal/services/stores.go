package services

import (
	"context"

	"github.com/dgeemedia/cse340-backend/internal/models"
)

// The service layer depends on these narrow views of the repositories so the
// Postgres implementations can be swapped for in-memory ones in tests.

type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id int) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateInfo(ctx context.Context, id int, firstName, lastName, email string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id int, hash string) error
	SetRole(ctx context.Context, id int, role models.Role) error
	RecordLogin(ctx context.Context, id int) error
	SetTOTPSecret(ctx context.Context, id int, secret string) error
	EnableTOTP(ctx context.Context, id int) error
	DisableTOTP(ctx context.Context, id int) error
	ListByRoles(ctx context.Context, roles []models.Role) ([]models.Recipient, error)
	ListAll(ctx context.Context) ([]*models.Account, error)
}

type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	ListInbox(ctx context.Context, accountID int) ([]*models.Message, error)
	ListOutbox(ctx context.Context, accountID int) ([]*models.Message, error)
	CountUnread(ctx context.Context, accountID int) (int, error)
	GetByID(ctx context.Context, id int) (*models.Message, error)
	SetRead(ctx context.Context, id int, isRead bool) (*models.Message, error)
	Delete(ctx context.Context, id int) error
}

type ReviewStore interface {
	Create(ctx context.Context, rv *models.Review) error
	ListByInventory(ctx context.Context, invID, limit, offset int) ([]*models.Review, error)
	CountByInventory(ctx context.Context, invID int) (int, error)
	Summary(ctx context.Context, invID int) (models.RatingSummary, error)
	GetByID(ctx context.Context, id int) (*models.Review, error)
	ListByAccount(ctx context.Context, accountID int) ([]*models.Review, error)
	Update(ctx context.Context, id, rating int, comment string) error
	Delete(ctx context.Context, id int) error
}

type ReplyStore interface {
	Create(ctx context.Context, rp *models.ReviewReply) error
	GetByID(ctx context.Context, id int) (*models.ReviewReply, error)
	ListByReviews(ctx context.Context, reviewIDs []int) ([]*models.ReviewReply, error)
}

type InventoryStore interface {
	ListClassifications(ctx context.Context) ([]models.Classification, error)
	CreateClassification(ctx context.Context, name string) (*models.Classification, error)
	ListByClassification(ctx context.Context, classificationID int) ([]*models.Vehicle, error)
	ListAll(ctx context.Context) ([]*models.Vehicle, error)
	GetByID(ctx context.Context, id int) (*models.Vehicle, error)
	Exists(ctx context.Context, id int) (bool, error)
	Create(ctx context.Context, v *models.Vehicle) error
	Update(ctx context.Context, v *models.Vehicle) error
	Delete(ctx context.Context, id int) error
}

// NavCache holds the rendered classification list shown in the site nav.
type NavCache interface {
	GetClassifications(ctx context.Context) ([]models.Classification, bool)
	SetClassifications(ctx context.Context, classes []models.Classification)
	InvalidateClassifications(ctx context.Context)
}

// ImageStore uploads vehicle images and returns the public URL.
type ImageStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}
