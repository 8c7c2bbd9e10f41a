package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

type memStore struct {
	mu     sync.Mutex
	users  map[string]domain.User
	links  map[string]domain.Link
	places map[string]domain.Place
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]domain.User{},
		links:  map[string]domain.Link{},
		places: map[string]domain.Place{},
	}
}

type memUsers struct{ *memStore }
type memLinks struct{ *memStore }
type memPlaces struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return domain.ErrConflict
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m memUsers) find(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.ID == id })
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Email == email })
}

func (m memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Username == username })
}

func (m memUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	_, err := m.find(func(u domain.User) bool { return u.Email == email || u.Username == username })
	return err == nil, nil
}

func (m memUsers) UpdateProfile(_ context.Context, id string, in domain.ProfileUpdate, now time.Time) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.DisplayName = in.DisplayName
	u.Bio, u.AvatarURL, u.BackgroundURL = in.Bio, in.AvatarURL, in.BackgroundURL
	if in.Theme != nil {
		u.Theme = *in.Theme
	}
	if in.AccentHue != nil {
		u.AccentHue = *in.AccentHue
	}
	if in.OverlayOpacity != nil {
		u.OverlayOpacity = *in.OverlayOpacity
	}
	if in.OverlayBlur != nil {
		u.OverlayBlur = *in.OverlayBlur
	}
	u.UpdatedAt = now
	m.users[id] = u
	return &u, nil
}

func (m memLinks) ListByUser(_ context.Context, userID string, visibleOnly bool) ([]domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Link
	for _, l := range m.links {
		if l.UserID == userID && (!visibleOnly || l.IsVisible) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m memLinks) Create(_ context.Context, l *domain.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[l.ID] = *l
	return nil
}

func (m memLinks) Update(_ context.Context, userID, id string, in domain.LinkInput, now time.Time) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok || l.UserID != userID {
		return nil, domain.ErrNotFound
	}
	l.Title, l.URL = in.Title, in.URL
	if in.Icon != nil {
		l.Icon = in.Icon
	}
	if in.Order != nil {
		l.Order = *in.Order
	}
	if in.IsVisible != nil {
		l.IsVisible = *in.IsVisible
	}
	l.UpdatedAt = now
	m.links[id] = l
	return &l, nil
}

func (m memLinks) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok || l.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.links, id)
	return nil
}

func (m memPlaces) ListByUser(_ context.Context, userID string) ([]domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Place
	for _, p := range m.places {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m memPlaces) Create(_ context.Context, p *domain.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.places[p.ID] = *p
	return nil
}

func (m memPlaces) Update(_ context.Context, p *domain.Place) (*domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.places[p.ID]
	if !ok || existing.UserID != p.UserID {
		return nil, domain.ErrNotFound
	}
	updated := *p
	updated.CreatedAt = existing.CreatedAt
	m.places[p.ID] = updated
	return &updated, nil
}

func (m memPlaces) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.places[id]
	if !ok || p.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.places, id)
	return nil
}

// tickingClock returns strictly increasing instants so ordering is deterministic.
func tickingClock() clock {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func ptr[T any](v T) *T { return &v }
