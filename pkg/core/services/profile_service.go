package services

import (
	"context"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/ports"
)

type ProfileService struct {
	users  ports.UserRepository
	links  ports.LinkRepository
	places ports.PlaceRepository
	now    clock
}

func NewProfileService(users ports.UserRepository, links ports.LinkRepository, places ports.PlaceRepository) *ProfileService {
	return &ProfileService{users: users, links: links, places: places, now: systemClock}
}

// Owner assembles the full editable profile for the session user.
func (s *ProfileService) Owner(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	links, err := s.links.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	places, err := s.places.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.Profile{User: *user, Links: nonNil(links), Places: nonNil(places)}, nil
}

// Public assembles what visitors see at /{username}.
func (s *ProfileService) Public(ctx context.Context, username string) (*domain.PublicProfile, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	links, err := s.links.ListByUser(ctx, user.ID, true)
	if err != nil {
		return nil, err
	}
	places, err := s.places.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &domain.PublicProfile{PublicUser: user.Public(), Links: nonNil(links), Places: nonNil(places)}, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, in domain.ProfileUpdate) (*domain.User, error) {
	in.Normalize()
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	return s.users.UpdateProfile(ctx, userID, in, s.now())
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
