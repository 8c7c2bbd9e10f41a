// Package autosave keeps unsaved edits of the dashboard's profile, links and
// places, and writes each one back after a quiet period.
//
// Every edited entity owns one timer. A change re-arms only that entity's
// timer, so typing in one link never delays or drops the save of another.
// When a timer fires the latest draft is sent and the profile is reloaded.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
)

const (
	DefaultLinkDelay    = 600 * time.Millisecond
	DefaultPlaceDelay   = 600 * time.Millisecond
	DefaultProfileDelay = 700 * time.Millisecond
	DefaultSaveTimeout  = 15 * time.Second
)

var (
	ErrClosed    = errors.New("autosave: coordinator closed")
	ErrNotLoaded = errors.New("autosave: profile not loaded")
)

// API is the part of the TripTree client the coordinator writes through.
// *client.Client satisfies it.
type API interface {
	Me(ctx context.Context) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error)
	UpdateLink(ctx context.Context, id string, in domain.LinkInput) (*domain.Link, error)
	DeleteLink(ctx context.Context, id string) error
	UpdatePlace(ctx context.Context, id string, in domain.PlaceInput) (*domain.Place, error)
	DeletePlace(ctx context.Context, id string) error
}

type Kind string

const (
	KindProfile Kind = "profile"
	KindLink    Kind = "link"
	KindPlace   Kind = "place"
)

// Key names one draft. The profile key has an empty ID.
type Key struct {
	Kind Kind
	ID   string
}

func ProfileKey() Key        { return Key{Kind: KindProfile} }
func LinkKey(id string) Key  { return Key{Kind: KindLink, ID: id} }
func PlaceKey(id string) Key { return Key{Kind: KindPlace, ID: id} }

func (k Key) String() string {
	if k.ID == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + "/" + k.ID
}

type State int

const (
	StateSynced State = iota
	StateDirty
	StateSaving
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	case StateFailed:
		return "failed"
	default:
		return "synced"
	}
}

type entry struct {
	link    LinkDraft
	place   PlaceDraft
	profile ProfileDraft

	timer clockwork.Timer
	gen   uint64
	state State
	err   error
}

type Option func(*Coordinator)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

func WithLinkDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.delays[KindLink] = d }
}

func WithPlaceDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.delays[KindPlace] = d }
}

func WithProfileDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.delays[KindProfile] = d }
}

func WithLogger(log logging.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithErrorHandler is called once for every failed save, outside any lock.
func WithErrorHandler(fn func(Key, error)) Option {
	return func(c *Coordinator) { c.onError = fn }
}

func WithSaveTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.saveTimeout = d }
}

type Coordinator struct {
	api         API
	clock       clockwork.Clock
	delays      map[Kind]time.Duration
	saveTimeout time.Duration
	log         logging.Logger
	onError     func(Key, error)

	mu       sync.Mutex
	profile  *domain.Profile
	entries  map[Key]*entry
	seq      uint64
	closed   bool
	inflight sync.WaitGroup
}

func New(api API, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:   api,
		clock: clockwork.NewRealClock(),
		delays: map[Kind]time.Duration{
			KindLink:    DefaultLinkDelay,
			KindPlace:   DefaultPlaceDelay,
			KindProfile: DefaultProfileDelay,
		},
		saveTimeout: DefaultSaveTimeout,
		log:         logging.Nop(),
		onError:     func(Key, error) {},
		entries:     make(map[Key]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the owner profile and makes it the baseline drafts are
// compared against. Drafts of entities that no longer exist are dropped and
// idle drafts follow the reloaded values.
func (c *Coordinator) Load(ctx context.Context) error {
	p, err := c.api.Me(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = p
	for key, e := range c.entries {
		if !c.existsLocked(key) {
			c.stopLocked(e)
			delete(c.entries, key)
			continue
		}
		if e.state == StateSynced {
			c.resetLocked(key, e)
		}
	}
	return nil
}

// Profile returns a copy of the last loaded profile, or nil before Load.
func (c *Coordinator) Profile() *domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil
	}
	p := *c.profile
	p.Links = append([]domain.Link(nil), c.profile.Links...)
	p.Places = append([]domain.Place(nil), c.profile.Places...)
	return &p
}

func (c *Coordinator) BeginLinkEdit(id string) (LinkDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(LinkKey(id))
	if err != nil {
		return LinkDraft{}, err
	}
	return e.link, nil
}

func (c *Coordinator) BeginPlaceEdit(id string) (PlaceDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(PlaceKey(id))
	if err != nil {
		return PlaceDraft{}, err
	}
	return e.place, nil
}

func (c *Coordinator) BeginProfileEdit() (ProfileDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(ProfileKey())
	if err != nil {
		return ProfileDraft{}, err
	}
	return e.profile, nil
}

func (c *Coordinator) ChangeLink(id string, d LinkDraft) error {
	return c.change(LinkKey(id), func(e *entry) { e.link = d })
}

func (c *Coordinator) ChangePlace(id string, d PlaceDraft) error {
	return c.change(PlaceKey(id), func(e *entry) { e.place = d })
}

func (c *Coordinator) ChangeProfile(d ProfileDraft) error {
	return c.change(ProfileKey(), func(e *entry) { e.profile = d })
}

// change records a draft. A draft equal to the stored entity cancels any
// pending save; anything else replaces the entity's own timer.
func (c *Coordinator) change(key Key, set func(*entry)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.entryLocked(key)
	if err != nil {
		return err
	}
	saving := e.state == StateSaving
	set(e)
	c.stopLocked(e)

	// While a save is in flight the baseline is about to move, so even a
	// draft that matches it now has to go out after the one on the wire.
	if !saving && !c.dirtyLocked(key, e) {
		e.state, e.err = StateSynced, nil
		return nil
	}

	c.armLocked(key, e)
	return nil
}

func (c *Coordinator) armLocked(key Key, e *entry) {
	gen := e.gen
	e.state = StateDirty
	e.timer = c.clock.AfterFunc(c.delays[key.Kind], func() { c.fire(key, gen) })
	c.log.Debug(context.Background(), "autosave armed", "key", key.String(), "delay", c.delays[key.Kind])
}

// CloseEdit ends editing of an entity. A draft with no material change is
// dropped; a pending save still goes out.
func (c *Coordinator) CloseEdit(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.state != StateSynced {
		return
	}
	c.stopLocked(e)
	delete(c.entries, key)
}

func (c *Coordinator) DeleteLink(ctx context.Context, id string) error {
	return c.remove(ctx, LinkKey(id), c.api.DeleteLink)
}

func (c *Coordinator) DeletePlace(ctx context.Context, id string) error {
	return c.remove(ctx, PlaceKey(id), c.api.DeletePlace)
}

// remove cancels the entity's timer before deleting it, so a draft can
// never be written back to a deleted entity.
func (c *Coordinator) remove(ctx context.Context, key Key, del func(context.Context, string) error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if e, ok := c.entries[key]; ok {
		c.stopLocked(e)
		delete(c.entries, key)
	}
	c.mu.Unlock()

	err := del(ctx, key.ID)
	if lerr := c.Load(ctx); lerr != nil && err == nil {
		return lerr
	}
	return err
}

// Flush sends every dirty or failed draft now instead of waiting for its timer.
func (c *Coordinator) Flush(ctx context.Context) error {
	type job struct {
		key Key
		gen uint64
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	var jobs []job
	for key, e := range c.entries {
		if e.state == StateDirty || e.state == StateFailed {
			c.stopLocked(e)
			jobs = append(jobs, job{key: key, gen: e.gen})
		}
	}
	c.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].key.String() < jobs[j].key.String() })

	var errs []error
	for _, j := range jobs {
		if err := c.save(ctx, j.key, j.gen); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", j.key, err))
		}
	}
	return errors.Join(errs...)
}

// Pending lists the drafts not yet stored, failed ones included.
func (c *Coordinator) Pending() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []Key
	for key, e := range c.entries {
		if e.state != StateSynced {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func (c *Coordinator) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.state
	}
	return StateSynced
}

// Err returns the error of the last failed save for key, if any.
func (c *Coordinator) Err(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.err
	}
	return nil
}

// Close stops every pending timer and waits for saves already on the wire.
// Unsent drafts are discarded; call Flush first to keep them.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	for _, e := range c.entries {
		c.stopLocked(e)
	}
	c.mu.Unlock()
	c.inflight.Wait()
}

func (c *Coordinator) fire(key Key, gen uint64) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if c.closed || !ok || e.gen != gen {
		c.mu.Unlock()
		return
	}
	e.timer = nil
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.saveTimeout)
	defer cancel()
	_ = c.save(ctx, key, gen)
}

// save sends the draft for key if it is still the generation that was
// scheduled, then reloads the profile whatever the outcome.
func (c *Coordinator) save(ctx context.Context, key Key, gen uint64) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.gen != gen {
		c.mu.Unlock()
		return nil
	}
	e.state = StateSaving
	send, err := c.requestLocked(key, e)
	c.mu.Unlock()

	if err == nil {
		err = send(ctx)
	}
	c.finish(key, gen, err)

	if lerr := c.Load(ctx); lerr != nil {
		c.log.Warn(ctx, "autosave reload failed", "error", lerr)
	}
	if err != nil {
		c.log.Warn(ctx, "autosave failed", "key", key.String(), "error", err)
		c.onError(key, err)
	}
	return err
}

func (c *Coordinator) finish(key Key, gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.gen != gen {
		return
	}
	if err != nil {
		e.state, e.err = StateFailed, err
		return
	}
	delete(c.entries, key)
}

func (c *Coordinator) requestLocked(key Key, e *entry) (func(context.Context) error, error) {
	switch key.Kind {
	case KindLink:
		in := e.link.input()
		return func(ctx context.Context) error {
			_, err := c.api.UpdateLink(ctx, key.ID, in)
			return err
		}, nil
	case KindPlace:
		stored, ok := c.profile.FindPlace(key.ID)
		if !ok {
			return nil, fmt.Errorf("place %s: %w", key.ID, domain.ErrNotFound)
		}
		in, err := e.place.input(stored)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			_, err := c.api.UpdatePlace(ctx, key.ID, in)
			return err
		}, nil
	case KindProfile:
		up := e.profile.update()
		return func(ctx context.Context) error {
			_, err := c.api.UpdateProfile(ctx, up)
			return err
		}, nil
	}
	return nil, fmt.Errorf("autosave: unknown kind %q", key.Kind)
}

func (c *Coordinator) entryLocked(key Key) (*entry, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.profile == nil {
		return nil, ErrNotLoaded
	}
	if e, ok := c.entries[key]; ok {
		return e, nil
	}

	e := &entry{}
	switch key.Kind {
	case KindLink:
		l, ok := c.profile.FindLink(key.ID)
		if !ok {
			return nil, fmt.Errorf("link %s: %w", key.ID, domain.ErrNotFound)
		}
		e.link = linkDraftOf(l)
	case KindPlace:
		p, ok := c.profile.FindPlace(key.ID)
		if !ok {
			return nil, fmt.Errorf("place %s: %w", key.ID, domain.ErrNotFound)
		}
		e.place = placeDraftOf(p)
	case KindProfile:
		e.profile = profileDraftOf(c.profile.User)
	default:
		return nil, fmt.Errorf("autosave: unknown kind %q", key.Kind)
	}
	c.entries[key] = e
	return e, nil
}

// dirtyLocked reports whether the draft differs from the stored entity on
// any tracked field.
func (c *Coordinator) dirtyLocked(key Key, e *entry) bool {
	switch key.Kind {
	case KindLink:
		l, ok := c.profile.FindLink(key.ID)
		return ok && e.link != linkDraftOf(l)
	case KindPlace:
		p, ok := c.profile.FindPlace(key.ID)
		return ok && e.place != placeDraftOf(p)
	case KindProfile:
		return e.profile != profileDraftOf(c.profile.User)
	}
	return false
}

func (c *Coordinator) resetLocked(key Key, e *entry) {
	switch key.Kind {
	case KindLink:
		if l, ok := c.profile.FindLink(key.ID); ok {
			e.link = linkDraftOf(l)
		}
	case KindPlace:
		if p, ok := c.profile.FindPlace(key.ID); ok {
			e.place = placeDraftOf(p)
		}
	case KindProfile:
		e.profile = profileDraftOf(c.profile.User)
	}
}

func (c *Coordinator) existsLocked(key Key) bool {
	switch key.Kind {
	case KindLink:
		_, ok := c.profile.FindLink(key.ID)
		return ok
	case KindPlace:
		_, ok := c.profile.FindPlace(key.ID)
		return ok
	}
	return true
}

// stopLocked cancels the pending timer and bumps the generation so a
// callback already on its way finds nothing to do.
func (c *Coordinator) stopLocked(e *entry) {
	c.seq++
	e.gen = c.seq
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
