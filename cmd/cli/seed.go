package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

const (
	demoEmail    = "demo@triptree.dev"
	demoUsername = "demo"
	demoPassword = "TripTree123!"
)

// doSeed creates the demo traveler once. Running it again is a no-op.
func doSeed(ctx context.Context, e *env, w io.Writer) error {
	user, err := e.auth.Signup(ctx, domain.SignupInput{
		Email:       demoEmail,
		Username:    demoUsername,
		Password:    demoPassword,
		DisplayName: "Demo Traveler",
	})
	if errors.Is(err, domain.ErrConflict) {
		fmt.Fprintln(w, "Demo user already exists:", demoEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create demo user: %w", err)
	}

	if _, err := e.profiles.Update(ctx, user.ID, domain.ProfileUpdate{
		DisplayName:    "Demo Traveler",
		Bio:            ptr("Explorador de novas rotas ✈️"),
		AccentHue:      ptr(210),
		OverlayOpacity: ptr(0.35),
		OverlayBlur:    ptr(16),
	}); err != nil {
		return fmt.Errorf("demo profile: %w", err)
	}

	links := []domain.LinkInput{
		{Title: "Instagram", URL: "https://instagram.com", Order: ptr(1), Icon: ptr("instagram")},
		{Title: "Blog de Viagens", URL: "https://example.com", Order: ptr(2), Icon: ptr("globe")},
	}
	for _, in := range links {
		if _, err := e.links.Create(ctx, user.ID, in); err != nil {
			return fmt.Errorf("demo link %q: %w", in.Title, err)
		}
	}

	places := []domain.PlaceInput{
		{Name: "Lisboa", CountryCode: ptr("PT"), Lat: ptr(38.7223), Lng: ptr(-9.1393)},
		{Name: "Tokyo", CountryCode: ptr("JP"), Lat: ptr(35.6762), Lng: ptr(139.6503)},
	}
	for _, in := range places {
		if _, err := e.places.Create(ctx, user.ID, in); err != nil {
			return fmt.Errorf("demo place %q: %w", in.Name, err)
		}
	}

	fmt.Fprintln(w, "Seeded user:", user.Email)
	return nil
}

func ptr[T any](v T) *T { return &v }
