package domain

import "time"

// Place is a visited location pinned on the travel map.
type Place struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	CountryCode *string    `json:"countryCode"`
	Lat         float64    `json:"lat"`
	Lng         float64    `json:"lng"`
	VisitedAt   *time.Time `json:"visitedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// PlaceInput replaces every editable field of a place, on create and update.
type PlaceInput struct {
	Name        string     `json:"name" validate:"required,min=2,max=80"`
	CountryCode *string    `json:"countryCode,omitempty" validate:"omitempty,max=3"`
	Lat         *float64   `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng         *float64   `json:"lng" validate:"required,gte=-180,lte=180"`
	VisitedAt   *time.Time `json:"visitedAt,omitempty"`
}

func (in *PlaceInput) Normalize() {
	in.CountryCode = nilIfEmpty(in.CountryCode)
}
