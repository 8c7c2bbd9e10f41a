package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

// dump is the file format of export and import.
type dump struct {
	Username string         `json:"username"`
	Links    []domain.Link  `json:"links"`
	Places   []domain.Place `json:"places"`
}

func doExport(ctx context.Context, e *env, username string, w io.Writer) error {
	user, err := e.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("find %s: %w", username, err)
	}
	profile, err := e.profiles.Owner(ctx, user.ID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(dump{Username: user.Username, Links: profile.Links, Places: profile.Places})
}

// doImport adds the links and places of a dump to username. IDs are not
// kept; entries the user already has (same URL, same place and spot) are skipped.
func doImport(ctx context.Context, e *env, username string, r io.Reader, w io.Writer) error {
	var d dump
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	user, err := e.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("find %s: %w", username, err)
	}
	profile, err := e.profiles.Owner(ctx, user.ID)
	if err != nil {
		return err
	}

	haveURL := make(map[string]bool, len(profile.Links))
	for _, l := range profile.Links {
		haveURL[l.URL] = true
	}
	type spot struct {
		name     string
		lat, lng float64
	}
	havePlace := make(map[spot]bool, len(profile.Places))
	for _, p := range profile.Places {
		havePlace[spot{p.Name, p.Lat, p.Lng}] = true
	}

	var links, places int
	for _, l := range d.Links {
		if haveURL[l.URL] {
			fmt.Fprintf(w, "Skipping existing link: %s\n", l.URL)
			continue
		}
		order, visible := l.Order, l.IsVisible
		_, err := e.links.Create(ctx, user.ID, domain.LinkInput{
			Title: l.Title, URL: l.URL, Icon: l.Icon, Order: &order, IsVisible: &visible,
		})
		if err != nil {
			fmt.Fprintf(w, "Failed to import link %s: %v\n", l.URL, err)
			continue
		}
		haveURL[l.URL] = true
		links++
	}

	// dumps list places newest first; create oldest first to keep that order
	for i := len(d.Places) - 1; i >= 0; i-- {
		p := d.Places[i]
		key := spot{p.Name, p.Lat, p.Lng}
		if havePlace[key] {
			fmt.Fprintf(w, "Skipping existing place: %s\n", p.Name)
			continue
		}
		lat, lng := p.Lat, p.Lng
		_, err := e.places.Create(ctx, user.ID, domain.PlaceInput{
			Name: p.Name, CountryCode: p.CountryCode, Lat: &lat, Lng: &lng, VisitedAt: p.VisitedAt,
		})
		if err != nil {
			fmt.Fprintf(w, "Failed to import place %s: %v\n", p.Name, err)
			continue
		}
		havePlace[key] = true
		places++
	}

	fmt.Fprintf(w, "Imported %d links and %d places\n", links, places)
	return nil
}
