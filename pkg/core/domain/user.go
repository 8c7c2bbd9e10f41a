package domain

import "time"

// Appearance defaults for a fresh profile, matching what the dashboard shows
// before the owner touches the theme editor.
const (
	DefaultTheme          = "aurora"
	DefaultAccentHue      = 260
	DefaultOverlayOpacity = 0.35
	DefaultOverlayBlur    = 18
)

// User is an account plus its public appearance settings.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"` // never serialized
	DisplayName    string    `json:"displayName"`
	Bio            *string   `json:"bio"`
	AvatarURL      *string   `json:"avatarUrl"`
	BackgroundURL  *string   `json:"backgroundUrl"`
	Theme          string    `json:"theme"`
	AccentHue      int       `json:"accentHue"`
	OverlayOpacity float64   `json:"overlayOpacity"`
	OverlayBlur    int       `json:"overlayBlur"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PublicUser is the subset of User visible on the public page.
type PublicUser struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"displayName"`
	Bio            *string   `json:"bio"`
	AvatarURL      *string   `json:"avatarUrl"`
	BackgroundURL  *string   `json:"backgroundUrl"`
	Theme          string    `json:"theme"`
	AccentHue      int       `json:"accentHue"`
	OverlayOpacity float64   `json:"overlayOpacity"`
	OverlayBlur    int       `json:"overlayBlur"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		Bio:            u.Bio,
		AvatarURL:      u.AvatarURL,
		BackgroundURL:  u.BackgroundURL,
		Theme:          u.Theme,
		AccentHue:      u.AccentHue,
		OverlayOpacity: u.OverlayOpacity,
		OverlayBlur:    u.OverlayBlur,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// AccountSummary is what signup and login return.
type AccountSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

func (u User) Summary() AccountSummary {
	return AccountSummary{ID: u.ID, Email: u.Email, Username: u.Username, DisplayName: u.DisplayName}
}

type SignupInput struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=24,username"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"required,min=2,max=40"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ProfileUpdate is the bounded set of fields an owner may change.
// Bio and the two image URLs are replaced (nil clears them); the appearance
// fields keep their stored value when nil.
type ProfileUpdate struct {
	DisplayName    string   `json:"displayName" validate:"required,min=2,max=40"`
	Bio            *string  `json:"bio" validate:"omitempty,max=160"`
	AvatarURL      *string  `json:"avatarUrl" validate:"omitempty,url"`
	BackgroundURL  *string  `json:"backgroundUrl" validate:"omitempty,url"`
	Theme          *string  `json:"theme" validate:"omitempty,max=32"`
	AccentHue      *int     `json:"accentHue" validate:"omitempty,min=0,max=360"`
	OverlayOpacity *float64 `json:"overlayOpacity" validate:"omitempty,min=0,max=1"`
	OverlayBlur    *int     `json:"overlayBlur" validate:"omitempty,min=0,max=40"`
}

// Normalize turns empty strings into nil so "" clears a field instead of
// failing the url rule.
func (p *ProfileUpdate) Normalize() {
	p.Bio = nilIfEmpty(p.Bio)
	p.AvatarURL = nilIfEmpty(p.AvatarURL)
	p.BackgroundURL = nilIfEmpty(p.BackgroundURL)
	p.Theme = nilIfEmpty(p.Theme)
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
