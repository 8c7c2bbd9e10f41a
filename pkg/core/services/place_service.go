package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/ports"
)

type PlaceService struct {
	repo ports.PlaceRepository
	now  clock
}

func NewPlaceService(repo ports.PlaceRepository) *PlaceService {
	return &PlaceService{repo: repo, now: systemClock}
}

func (s *PlaceService) List(ctx context.Context, userID string) ([]domain.Place, error) {
	places, err := s.repo.ListByUser(ctx, userID)
	return nonNil(places), err
}

func (s *PlaceService) Create(ctx context.Context, userID string, in domain.PlaceInput) (*domain.Place, error) {
	in.Normalize()
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	place := placeFromInput(in)
	place.ID = uuid.NewString()
	place.UserID = userID
	place.CreatedAt = s.now()

	if err := s.repo.Create(ctx, place); err != nil {
		return nil, err
	}
	return place, nil
}

// Update replaces every editable field; omitted optional fields are cleared.
func (s *PlaceService) Update(ctx context.Context, userID, id string, in domain.PlaceInput) (*domain.Place, error) {
	in.Normalize()
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	place := placeFromInput(in)
	place.ID = id
	place.UserID = userID
	return s.repo.Update(ctx, place)
}

func (s *PlaceService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func placeFromInput(in domain.PlaceInput) *domain.Place {
	p := &domain.Place{
		Name:        in.Name,
		CountryCode: in.CountryCode,
		Lat:         *in.Lat,
		Lng:         *in.Lng,
	}
	if in.VisitedAt != nil {
		v := in.VisitedAt.UTC()
		p.VisitedAt = &v
	}
	return p
}
