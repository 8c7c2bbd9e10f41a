package autosave

import (
	"strconv"
	"strings"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

// LinkDraft holds the editable fields of a link while its editor is open.
type LinkDraft struct {
	Title string
	URL   string
}

func linkDraftOf(l domain.Link) LinkDraft {
	return LinkDraft{Title: l.Title, URL: l.URL}
}

func (d LinkDraft) input() domain.LinkInput {
	return domain.LinkInput{Title: d.Title, URL: d.URL}
}

// PlaceDraft keeps coordinates as typed text so a half-entered number
// ("-9.") survives until the next keystroke.
type PlaceDraft struct {
	Name string
	Lat  string
	Lng  string
}

func placeDraftOf(p domain.Place) PlaceDraft {
	return PlaceDraft{Name: p.Name, Lat: formatCoord(p.Lat), Lng: formatCoord(p.Lng)}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (d PlaceDraft) input(stored domain.Place) (domain.PlaceInput, error) {
	var bad []domain.FieldError
	lat, err := strconv.ParseFloat(strings.TrimSpace(d.Lat), 64)
	if err != nil {
		bad = append(bad, domain.FieldError{Field: "lat", Rule: "number"})
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(d.Lng), 64)
	if err != nil {
		bad = append(bad, domain.FieldError{Field: "lng", Rule: "number"})
	}
	if len(bad) > 0 {
		return domain.PlaceInput{}, &domain.ValidationError{Fields: bad}
	}
	// An update replaces the whole place, so carry the fields the editor does not show.
	return domain.PlaceInput{
		Name:        d.Name,
		CountryCode: stored.CountryCode,
		Lat:         &lat,
		Lng:         &lng,
		VisitedAt:   stored.VisitedAt,
	}, nil
}

// ProfileDraft mirrors the profile editor form. Empty strings mean "unset".
type ProfileDraft struct {
	DisplayName    string
	Bio            string
	AvatarURL      string
	BackgroundURL  string
	Theme          string
	AccentHue      int
	OverlayOpacity float64
	OverlayBlur    int
}

func profileDraftOf(u domain.User) ProfileDraft {
	return ProfileDraft{
		DisplayName:    u.DisplayName,
		Bio:            deref(u.Bio),
		AvatarURL:      deref(u.AvatarURL),
		BackgroundURL:  deref(u.BackgroundURL),
		Theme:          u.Theme,
		AccentHue:      u.AccentHue,
		OverlayOpacity: u.OverlayOpacity,
		OverlayBlur:    u.OverlayBlur,
	}
}

func (d ProfileDraft) update() domain.ProfileUpdate {
	theme := d.Theme
	if theme == "" {
		theme = domain.DefaultTheme
	}
	up := domain.ProfileUpdate{
		DisplayName:    d.DisplayName,
		Bio:            &d.Bio,
		AvatarURL:      &d.AvatarURL,
		BackgroundURL:  &d.BackgroundURL,
		Theme:          &theme,
		AccentHue:      &d.AccentHue,
		OverlayOpacity: &d.OverlayOpacity,
		OverlayBlur:    &d.OverlayBlur,
	}
	up.Normalize()
	return up
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
