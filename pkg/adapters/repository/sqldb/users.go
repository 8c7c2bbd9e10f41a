package sqldb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

const userColumns = `id, email, username, password_hash, display_name, bio, avatar_url, background_url,
	theme, accent_hue, overlay_opacity, overlay_blur, created_at, updated_at`

type userRow struct {
	ID             string  `db:"id"`
	Email          string  `db:"email"`
	Username       string  `db:"username"`
	PasswordHash   string  `db:"password_hash"`
	DisplayName    string  `db:"display_name"`
	Bio            *string `db:"bio"`
	AvatarURL      *string `db:"avatar_url"`
	BackgroundURL  *string `db:"background_url"`
	Theme          string  `db:"theme"`
	AccentHue      int     `db:"accent_hue"`
	OverlayOpacity float64 `db:"overlay_opacity"`
	OverlayBlur    int     `db:"overlay_blur"`
	CreatedAt      int64   `db:"created_at"`
	UpdatedAt      int64   `db:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:             r.ID,
		Email:          r.Email,
		Username:       r.Username,
		PasswordHash:   r.PasswordHash,
		DisplayName:    r.DisplayName,
		Bio:            r.Bio,
		AvatarURL:      r.AvatarURL,
		BackgroundURL:  r.BackgroundURL,
		Theme:          r.Theme,
		AccentHue:      r.AccentHue,
		OverlayOpacity: r.OverlayOpacity,
		OverlayBlur:    r.OverlayBlur,
		CreatedAt:      fromNanos(r.CreatedAt),
		UpdatedAt:      fromNanos(r.UpdatedAt),
	}
}

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.store.withTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		_, err := exec(ctx, tx, `INSERT INTO users (`+userColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Email, u.Username, u.PasswordHash, u.DisplayName, u.Bio, u.AvatarURL, u.BackgroundURL,
			u.Theme, u.AccentHue, u.OverlayOpacity, u.OverlayBlur, nanos(u.CreatedAt), nanos(u.UpdatedAt))
		return dbError(err)
	})
}

func (r *UserRepository) getBy(ctx context.Context, q sqlx.ExtContext, column, value string) (*domain.User, error) {
	var row userRow
	if err := get(ctx, q, &row, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value); err != nil {
		return nil, dbError(err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, r.store.db, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, r.store.db, "email", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, r.store.db, "username", username)
}

func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var n int
	if err := get(ctx, r.store.db, &n, `SELECT COUNT(*) FROM users WHERE email = ? OR username = ?`, email, username); err != nil {
		return false, dbError(err)
	}
	return n > 0, nil
}

// UpdateProfile applies the update in one statement. Appearance columns keep
// their stored value when the update leaves them nil.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, in domain.ProfileUpdate, now time.Time) (*domain.User, error) {
	var user *domain.User
	err := r.store.withTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		err := execOwned(ctx, tx, `UPDATE users SET
				display_name = ?, bio = ?, avatar_url = ?, background_url = ?,
				theme = COALESCE(?, theme),
				accent_hue = COALESCE(?, accent_hue),
				overlay_opacity = COALESCE(?, overlay_opacity),
				overlay_blur = COALESCE(?, overlay_blur),
				updated_at = ?
			WHERE id = ?`,
			in.DisplayName, in.Bio, in.AvatarURL, in.BackgroundURL,
			in.Theme, in.AccentHue, in.OverlayOpacity, in.OverlayBlur,
			nanos(now), id)
		if err != nil {
			return err
		}

		user, err = r.getBy(ctx, tx, "id", id)
		return err
	})
	return user, err
}
