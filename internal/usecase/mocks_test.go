// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"sync"

	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/adapter"
)

// fakeAssistant answers SendMessage from a canned response. When gate is
// set, each call blocks until a value is sent on it or ctx is done.
type fakeAssistant struct {
	mu      sync.Mutex
	calls   []adapter.SendRequest
	resp    adapter.SendResponse
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeAssistant) SendMessage(ctx context.Context, req adapter.SendRequest) (adapter.SendResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	gate, entered := f.gate, f.entered
	resp, err := f.resp, f.err
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return adapter.SendResponse{}, ctx.Err()
		}
	}
	return resp, err
}

func (f *fakeAssistant) Calls() []adapter.SendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]adapter.SendRequest(nil), f.calls...)
}

// stubTranslator returns the key itself, so assertions can match keys.
type stubTranslator struct{}

func (stubTranslator) T(key string, _ ...interface{}) string { return key }

type listenerEvent struct {
	msg      model.Message
	phase    Phase
	awaiting *bool
}

type recordingListener struct {
	mu     sync.Mutex
	events []listenerEvent
}

func (r *recordingListener) OnMessage(msg model.Message, phase Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, listenerEvent{msg: msg, phase: phase})
}

func (r *recordingListener) OnAwaiting(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, listenerEvent{awaiting: &v})
}

func (r *recordingListener) Events() []listenerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]listenerEvent(nil), r.events...)
}

// inlineRunner runs tasks on the calling goroutine.
type inlineRunner struct{}

func (inlineRunner) Submit(task func(ctx context.Context) error) error {
	return task(context.Background())
}

// goRunner runs each task on its own goroutine and tracks completion.
type goRunner struct{ wg sync.WaitGroup }

func (g *goRunner) Submit(task func(ctx context.Context) error) error {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		_ = task(context.Background())
	}()
	return nil
}

var errQueueFull = errors.New("queue full")

type refusingRunner struct{}

func (refusingRunner) Submit(func(ctx context.Context) error) error { return errQueueFull }

// fakeBookingsAPI serves fixed datasets and counts calls.
type fakeBookingsAPI struct {
	mu        sync.Mutex
	all       *model.AllBookings
	allErr    error
	user      *model.UserBookings
	userErr   error
	userGate  chan struct{}
	allCalls  int
	userCalls int
	lastEmail string
}

func (f *fakeBookingsAPI) AllBookings(ctx context.Context) (*model.AllBookings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	if f.allErr != nil {
		return nil, f.allErr
	}
	if f.all == nil {
		return &model.AllBookings{}, nil
	}
	cp := *f.all
	return &cp, nil
}

func (f *fakeBookingsAPI) FlightBookings(ctx context.Context) ([]model.FlightBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allErr != nil {
		return nil, f.allErr
	}
	if f.all == nil {
		return nil, nil
	}
	return f.all.Flights, nil
}

func (f *fakeBookingsAPI) HotelBookings(ctx context.Context) ([]model.HotelBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allErr != nil {
		return nil, f.allErr
	}
	if f.all == nil {
		return nil, nil
	}
	return f.all.Hotels, nil
}

func (f *fakeBookingsAPI) UserBookings(ctx context.Context, email string) (*model.UserBookings, error) {
	f.mu.Lock()
	f.userCalls++
	f.lastEmail = email
	gate := f.userGate
	res, err := f.user, f.userErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &model.UserBookings{}, nil
	}
	cp := *res
	return &cp, nil
}

func (f *fakeBookingsAPI) UserCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userCalls
}

// memAggregateCache is a map-backed AggregateCache.
type memAggregateCache struct {
	mu     sync.Mutex
	store  map[string][]model.UserAggregate
	gets   int
	sets   int
	getErr error
}

func newMemAggregateCache() *memAggregateCache {
	return &memAggregateCache{store: make(map[string][]model.UserAggregate)}
}

func (m *memAggregateCache) Get(ctx context.Context, key string) ([]model.UserAggregate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.store[key]
	return v, ok, nil
}

func (m *memAggregateCache) Set(ctx context.Context, key string, aggs []model.UserAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.store[key] = aggs
	return nil
}

// ---- fixtures ----

var (
	alice = &model.UserIdentity{ID: "u1", Name: "Alice", Email: "alice@example.com"}
	bob   = &model.UserIdentity{ID: "u2", Name: "Bob", Email: "bob@example.com"}
)

func flight(id string, price float64, u *model.UserIdentity) model.FlightBooking {
	return model.FlightBooking{ID: id, BookingReference: "FR-" + id, TotalPrice: price, Currency: "USD", Status: model.BookingStatusConfirmed, User: u}
}

func hotel(id string, price float64, u *model.UserIdentity) model.HotelBooking {
	return model.HotelBooking{ID: id, BookingReference: "HR-" + id, TotalPrice: price, Currency: "USD", Status: model.BookingStatusConfirmed, User: u}
}
