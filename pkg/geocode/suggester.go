package geocode

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/wadjakorntonsri/triptree/pkg/logging"
)

const (
	DefaultDebounce = 350 * time.Millisecond
	MinQueryLength  = 3
)

type Searcher interface {
	Search(ctx context.Context, q string) ([]Suggestion, error)
}

type SuggesterOption func(*Suggester)

func WithClock(clock clockwork.Clock) SuggesterOption {
	return func(s *Suggester) { s.clock = clock }
}

func WithDebounce(d time.Duration) SuggesterOption {
	return func(s *Suggester) { s.delay = d }
}

func WithLogger(log logging.Logger) SuggesterOption {
	return func(s *Suggester) { s.log = log }
}

// Suggester drives search-as-you-type. Only the answer to the latest query
// is ever delivered: a new query cancels the pending timer and aborts the
// request in flight.
type Suggester struct {
	search  Searcher
	deliver func([]Suggestion)
	clock   clockwork.Clock
	delay   time.Duration
	log     logging.Logger

	mu        sync.Mutex
	seq       uint64
	timer     clockwork.Timer
	cancel    context.CancelFunc
	searching bool
	closed    bool

	// serializes deliver so a stale result cannot land after a newer one
	deliverMu sync.Mutex
}

// NewSuggester calls deliver with each answer, one call at a time. deliver
// must not call Query.
func NewSuggester(search Searcher, deliver func([]Suggestion), opts ...SuggesterOption) *Suggester {
	s := &Suggester{
		search:  search,
		deliver: deliver,
		clock:   clockwork.NewRealClock(),
		delay:   DefaultDebounce,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query replaces the current query. Fewer than MinQueryLength characters
// clears the suggestions right away.
func (s *Suggester) Query(q string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	gen := s.supersedeLocked()

	if utf8.RuneCountInString(q) < MinQueryLength {
		s.mu.Unlock()
		s.emit(gen, []Suggestion{})
		return
	}

	s.timer = s.clock.AfterFunc(s.delay, func() { s.run(gen, q) })
	s.mu.Unlock()
}

// Searching reports whether a request is on the wire.
func (s *Suggester) Searching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searching
}

// Close drops any pending or in-flight query. Nothing is delivered afterwards.
func (s *Suggester) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.supersedeLocked()
}

func (s *Suggester) supersedeLocked() uint64 {
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.searching = false
	return s.seq
}

func (s *Suggester) run(gen uint64, q string) {
	s.mu.Lock()
	if gen != s.seq {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.timer = nil
	s.searching = true
	s.mu.Unlock()
	defer cancel()

	results, err := s.search.Search(ctx, q)

	s.mu.Lock()
	if gen != s.seq {
		// superseded or aborted
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	s.searching = false
	s.mu.Unlock()

	if err != nil {
		s.log.Warn(ctx, "geocode search failed", "query", q, "error", err)
		results = []Suggestion{}
	}
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	s.emit(gen, results)
}

func (s *Suggester) emit(gen uint64, results []Suggestion) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	current := gen == s.seq && !s.closed
	s.mu.Unlock()
	if current {
		s.deliver(results)
	}
}
