package sqldb

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

const placeColumns = `id, user_id, name, country_code, lat, lng, visited_at, created_at`

type placeRow struct {
	ID          string  `db:"id"`
	UserID      string  `db:"user_id"`
	Name        string  `db:"name"`
	CountryCode *string `db:"country_code"`
	Lat         float64 `db:"lat"`
	Lng         float64 `db:"lng"`
	VisitedAt   *int64  `db:"visited_at"`
	CreatedAt   int64   `db:"created_at"`
}

func (r placeRow) toDomain() domain.Place {
	return domain.Place{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		CountryCode: r.CountryCode,
		Lat:         r.Lat,
		Lng:         r.Lng,
		VisitedAt:   fromNullableNanos(r.VisitedAt),
		CreatedAt:   fromNanos(r.CreatedAt),
	}
}

type PlaceRepository struct {
	store *Store
}

// ListByUser returns places newest first.
func (r *PlaceRepository) ListByUser(ctx context.Context, userID string) ([]domain.Place, error) {
	var rows []placeRow
	err := sel(ctx, r.store.db, &rows,
		`SELECT `+placeColumns+` FROM places WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, dbError(err)
	}

	places := make([]domain.Place, 0, len(rows))
	for _, row := range rows {
		places = append(places, row.toDomain())
	}
	return places, nil
}

func (r *PlaceRepository) Create(ctx context.Context, p *domain.Place) error {
	_, err := exec(ctx, r.store.db, `INSERT INTO places (`+placeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.CountryCode, p.Lat, p.Lng, nullableNanos(p.VisitedAt), nanos(p.CreatedAt))
	return dbError(err)
}

// Update replaces the editable fields of a place owned by p.UserID.
func (r *PlaceRepository) Update(ctx context.Context, p *domain.Place) (*domain.Place, error) {
	var place domain.Place
	err := r.store.withTx(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		err := execOwned(ctx, tx, `UPDATE places SET name = ?, country_code = ?, lat = ?, lng = ?, visited_at = ?
			WHERE id = ? AND user_id = ?`,
			p.Name, p.CountryCode, p.Lat, p.Lng, nullableNanos(p.VisitedAt), p.ID, p.UserID)
		if err != nil {
			return err
		}

		var row placeRow
		if err := get(ctx, tx, &row, `SELECT `+placeColumns+` FROM places WHERE id = ?`, p.ID); err != nil {
			return dbError(err)
		}
		place = row.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &place, nil
}

func (r *PlaceRepository) Delete(ctx context.Context, userID, id string) error {
	return execOwned(ctx, r.store.db, `DELETE FROM places WHERE id = ? AND user_id = ?`, id, userID)
}
