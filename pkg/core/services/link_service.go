package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/ports"
)

type LinkService struct {
	repo ports.LinkRepository
	now  clock
}

func NewLinkService(repo ports.LinkRepository) *LinkService {
	return &LinkService{repo: repo, now: systemClock}
}

func (s *LinkService) List(ctx context.Context, userID string) ([]domain.Link, error) {
	links, err := s.repo.ListByUser(ctx, userID, false)
	return nonNil(links), err
}

func (s *LinkService) Create(ctx context.Context, userID string, in domain.LinkInput) (*domain.Link, error) {
	in.Normalize()
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	link := &domain.Link{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     in.Title,
		URL:       in.URL,
		Icon:      iconFor(in),
		IsVisible: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Order != nil {
		link.Order = *in.Order
	}
	if in.IsVisible != nil {
		link.IsVisible = *in.IsVisible
	}

	if err := s.repo.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Update replaces title and url; icon, order and visibility are only
// changed when present in the input.
func (s *LinkService) Update(ctx context.Context, userID, id string, in domain.LinkInput) (*domain.Link, error) {
	in.Normalize()
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, userID, id, in, s.now())
}

func (s *LinkService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func iconFor(in domain.LinkInput) *string {
	if in.Icon != nil {
		return in.Icon
	}
	icon := domain.IconForURL(in.URL)
	return &icon
}
