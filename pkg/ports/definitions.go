package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

// UserRepository defines storage operations for accounts
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, now time.Time) (*domain.User, error)
}

// LinkRepository defines storage operations for links. Update and Delete only
// touch rows owned by userID and return domain.ErrNotFound otherwise.
type LinkRepository interface {
	ListByUser(ctx context.Context, userID string, visibleOnly bool) ([]domain.Link, error)
	Create(ctx context.Context, link *domain.Link) error
	Update(ctx context.Context, userID, id string, in domain.LinkInput, now time.Time) (*domain.Link, error)
	Delete(ctx context.Context, userID, id string) error
}

// PlaceRepository defines storage operations for visited places, scoped the same way.
type PlaceRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Place, error)
	Create(ctx context.Context, place *domain.Place) error
	Update(ctx context.Context, place *domain.Place) (*domain.Place, error)
	Delete(ctx context.Context, userID, id string) error
}

// ObjectStore hands out direct-to-bucket upload URLs.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}

type AuthService interface {
	Signup(ctx context.Context, in domain.SignupInput) (*domain.User, error)
	Login(ctx context.Context, in domain.LoginInput) (*domain.User, error)
	// LoginWithEmail resolves an identity already verified by an external provider.
	LoginWithEmail(ctx context.Context, email string) (*domain.User, error)
}

type ProfileService interface {
	Owner(ctx context.Context, userID string) (*domain.Profile, error)
	Public(ctx context.Context, username string) (*domain.PublicProfile, error)
	Update(ctx context.Context, userID string, in domain.ProfileUpdate) (*domain.User, error)
}

type LinkService interface {
	List(ctx context.Context, userID string) ([]domain.Link, error)
	Create(ctx context.Context, userID string, in domain.LinkInput) (*domain.Link, error)
	Update(ctx context.Context, userID, id string, in domain.LinkInput) (*domain.Link, error)
	Delete(ctx context.Context, userID, id string) error
}

type PlaceService interface {
	List(ctx context.Context, userID string) ([]domain.Place, error)
	Create(ctx context.Context, userID string, in domain.PlaceInput) (*domain.Place, error)
	Update(ctx context.Context, userID, id string, in domain.PlaceInput) (*domain.Place, error)
	Delete(ctx context.Context, userID, id string) error
}

type UploadService interface {
	Presign(ctx context.Context, userID string, req domain.UploadRequest) (*domain.Upload, error)
}
