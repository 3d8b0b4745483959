// File: internal/usecase/bookings_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"travel-planner-client/internal/domain"
	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/adapter"
	"travel-planner-client/internal/infra/logging"
	"travel-planner-client/internal/infra/metrics"
)

// BookingsService is the stateless read side used by the HTTP facade.
type BookingsService struct {
	api  adapter.BookingsAPI
	memo *AggregateMemo
	log  *zerolog.Logger
}

func NewBookingsService(api adapter.BookingsAPI, memo *AggregateMemo, logger *zerolog.Logger) *BookingsService {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "BookingsService").Logger()
	return &BookingsService{api: api, memo: memo, log: &l}
}

func (s *BookingsService) All(ctx context.Context) (*model.AllBookings, error) {
	start := time.Now()
	all, err := s.api.AllBookings(ctx)
	metrics.ObserveBookingsFetch("all", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch all bookings: %w", err)
	}
	return all, nil
}

// Cards fetches every booking and returns one summarized card per user.
func (s *BookingsService) Cards(ctx context.Context) ([]UserCard, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return Cards(s.memo.Aggregate(ctx, all.Flights, all.Hotels)), nil
}

// Warm fetches every booking and runs it through the aggregate memo,
// returning the number of users seen.
func (s *BookingsService) Warm(ctx context.Context) (int, error) {
	all, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	return s.memo.Aggregate(ctx, all.Flights, all.Hotels).Len(), nil
}

func (s *BookingsService) Search(ctx context.Context, email string) (*model.UserBookings, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		metrics.IncBookingSearch("invalid")
		return nil, domain.ErrEmailRequired
	}
	start := time.Now()
	res, err := s.api.UserBookings(ctx, email)
	metrics.ObserveBookingsFetch("user", time.Since(start), err)
	if err != nil {
		metrics.IncBookingSearch("error")
		return nil, fmt.Errorf("search bookings: %w", err)
	}
	if res.Empty() {
		metrics.IncBookingSearch("empty")
	} else {
		metrics.IncBookingSearch("found")
	}
	return res, nil
}

func (s *BookingsService) Flights(ctx context.Context) ([]model.FlightBooking, error) {
	start := time.Now()
	out, err := s.api.FlightBookings(ctx)
	metrics.ObserveBookingsFetch("flights", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch flight bookings: %w", err)
	}
	return out, nil
}

func (s *BookingsService) Hotels(ctx context.Context) ([]model.HotelBooking, error) {
	start := time.Now()
	out, err := s.api.HotelBookings(ctx)
	metrics.ObserveBookingsFetch("hotels", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch hotel bookings: %w", err)
	}
	return out, nil
}

type DisplayMode int

const (
	ModeAggregate DisplayMode = iota
	ModeSearch
)

func (m DisplayMode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "aggregate"
}

// PageView is a point-in-time copy of a BookingsPage.
type PageView struct {
	Mode      DisplayMode
	Email     string
	Loading   bool
	Searching bool
	Loaded    bool
	All       model.AllBookings
	Cards     []UserCard
	Result    *model.UserBookings
}

// BookingsPage holds one viewer's bookings screen: the aggregate dataset
// loaded once, and an optional per-email search shown in its place.
type BookingsPage struct {
	svc *BookingsService
	tr  Translator
	log *zerolog.Logger

	mu        sync.Mutex
	mode      DisplayMode
	email     string
	loading   bool
	loaded    bool
	searching bool
	closed    bool
	gen       uint64
	all       model.AllBookings
	cards     []UserCard
	result    *model.UserBookings
	notices   []model.Notice
}

func NewBookingsPage(svc *BookingsService, tr Translator, logger *zerolog.Logger) *BookingsPage {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "BookingsPage").Logger()
	return &BookingsPage{svc: svc, tr: tr, log: &l}
}

// Load fetches the aggregate dataset. A failure leaves the dataset empty and
// queues a destructive notice; it is not returned to the caller as an error
// unless the page is closed.
func (p *BookingsPage) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return domain.ErrPageClosed
	}
	p.loading = true
	p.mu.Unlock()

	all, err := p.svc.All(ctx)
	var cards []UserCard
	if err == nil {
		cards = Cards(p.svc.memo.Aggregate(ctx, all.Flights, all.Hotels))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if p.closed {
		return nil
	}
	if err != nil {
		p.log.Error().Err(err).Msg("load bookings failed")
		p.notify("bookings.load_failed", model.NoticeDestructive)
		return nil
	}
	p.all = *all
	p.cards = cards
	p.loaded = true
	p.log.Debug().Int("users", len(cards)).Int("flights", len(all.Flights)).Int("hotels", len(all.Hotels)).Msg("bookings loaded")
	return nil
}

func (p *BookingsPage) SetEmail(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.email = email
}

// Search looks up one user's bookings. A blank email is rejected with
// ErrEmailRequired and a notice; fetch failures are reported through the
// notice queue only.
func (p *BookingsPage) Search(ctx context.Context, email string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return domain.ErrPageClosed
	}
	if strings.TrimSpace(email) == "" {
		p.email = email
		p.notify("bookings.email_required", model.NoticeDestructive)
		p.mu.Unlock()
		metrics.IncBookingSearch("invalid")
		return domain.ErrEmailRequired
	}
	if p.searching {
		p.mu.Unlock()
		return domain.ErrRequestInFlight
	}
	p.email = email
	p.searching = true
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	res, err := p.svc.Search(ctx, email)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.searching = false
	if p.closed || gen != p.gen {
		p.log.Debug().Msg("discarding stale search result")
		return nil
	}
	if err != nil {
		p.log.Error().Err(err).Str("email", logging.Redact(email, false)).Msg("search bookings failed")
		p.result = nil
		p.mode = ModeAggregate
		p.notify("bookings.search_failed", model.NoticeDestructive)
		return nil
	}
	p.result = res
	p.mode = ModeSearch
	if res.Empty() {
		p.notify("bookings.none_found", model.NoticeInfo)
	}
	return nil
}

// Reset returns to the aggregate view. A search still in flight is dropped
// when it completes.
func (p *BookingsPage) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.email = ""
	p.result = nil
	p.mode = ModeAggregate
	p.gen++
}

func (p *BookingsPage) View() PageView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := PageView{
		Mode:      p.mode,
		Email:     p.email,
		Loading:   p.loading,
		Searching: p.searching,
		Loaded:    p.loaded,
		All:       p.all,
		Cards:     append([]UserCard(nil), p.cards...),
	}
	if p.result != nil {
		r := *p.result
		v.Result = &r
	}
	return v
}

// DrainNotices returns and clears the queued notices.
func (p *BookingsPage) DrainNotices() []model.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.notices
	p.notices = nil
	return out
}

func (p *BookingsPage) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// notify queues a notice; callers hold p.mu.
func (p *BookingsPage) notify(key string, variant model.NoticeVariant) {
	p.notices = append(p.notices, model.Notice{
		Title:       p.tr.T(key + ".title"),
		Description: p.tr.T(key + ".desc"),
		Variant:     variant,
	})
}
