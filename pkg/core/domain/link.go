package domain

import "time"

// Link is an outbound URL on a user's page. Order drives the display sequence.
type Link struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Icon      *string   `json:"icon"`
	Order     int       `json:"order"`
	IsVisible bool      `json:"isVisible"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LinkInput is the create/update payload. Order and IsVisible default to
// 0/true on create and keep their stored value on update when omitted.
type LinkInput struct {
	Title     string  `json:"title" validate:"required,min=2,max=60"`
	URL       string  `json:"url" validate:"required,url"`
	Icon      *string `json:"icon,omitempty" validate:"omitempty,max=32"`
	Order     *int    `json:"order,omitempty"`
	IsVisible *bool   `json:"isVisible,omitempty"`
}

func (in *LinkInput) Normalize() {
	in.Icon = nilIfEmpty(in.Icon)
}
