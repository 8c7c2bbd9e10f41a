package sqldb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

const linkColumns = `id, user_id, title, url, icon, sort_order, is_visible, created_at, updated_at`

type linkRow struct {
	ID        string  `db:"id"`
	UserID    string  `db:"user_id"`
	Title     string  `db:"title"`
	URL       string  `db:"url"`
	Icon      *string `db:"icon"`
	Order     int     `db:"sort_order"`
	IsVisible bool    `db:"is_visible"`
	CreatedAt int64   `db:"created_at"`
	UpdatedAt int64   `db:"updated_at"`
}

func (r linkRow) toDomain() domain.Link {
	return domain.Link{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		URL:       r.URL,
		Icon:      r.Icon,
		Order:     r.Order,
		IsVisible: r.IsVisible,
		CreatedAt: fromNanos(r.CreatedAt),
		UpdatedAt: fromNanos(r.UpdatedAt),
	}
}

type LinkRepository struct {
	store *Store
}

// ListByUser returns links by display order, ties broken by creation.
func (r *LinkRepository) ListByUser(ctx context.Context, userID string, visibleOnly bool) ([]domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = ?`
	args := []any{userID}
	if visibleOnly {
		query += ` AND is_visible = ?`
		args = append(args, true)
	}
	query += ` ORDER BY sort_order ASC, created_at ASC, id ASC`

	var rows []linkRow
	if err := sel(ctx, r.store.db, &rows, query, args...); err != nil {
		return nil, dbError(err)
	}

	links := make([]domain.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, row.toDomain())
	}
	return links, nil
}

func (r *LinkRepository) Create(ctx context.Context, l *domain.Link) error {
	_, err := exec(ctx, r.store.db, `INSERT INTO links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Title, l.URL, l.Icon, l.Order, l.IsVisible, nanos(l.CreatedAt), nanos(l.UpdatedAt))
	return dbError(err)
}

func (r *LinkRepository) Update(ctx context.Context, userID, id string, in domain.LinkInput, now time.Time) (*domain.Link, error) {
	var link domain.Link
	err := r.store.withTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		err := execOwned(ctx, tx, `UPDATE links SET
				title = ?, url = ?,
				icon = COALESCE(?, icon),
				sort_order = COALESCE(?, sort_order),
				is_visible = COALESCE(?, is_visible),
				updated_at = ?
			WHERE id = ? AND user_id = ?`,
			in.Title, in.URL, in.Icon, in.Order, in.IsVisible, nanos(now), id, userID)
		if err != nil {
			return err
		}

		var row linkRow
		if err := get(ctx, tx, &row, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id); err != nil {
			return dbError(err)
		}
		link = row.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *LinkRepository) Delete(ctx context.Context, userID, id string) error {
	return execOwned(ctx, r.store.db, `DELETE FROM links WHERE id = ? AND user_id = ?`, id, userID)
}
