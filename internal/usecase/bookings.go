package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/rs/zerolog"

	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/repository"
	"travel-planner-client/internal/infra/logging"
	"travel-planner-client/internal/infra/metrics"
)

// UserAggregates is the per-user grouping of a flat booking list, keyed by
// user ID and ordered by first appearance.
type UserAggregates struct {
	order []string
	byID  map[string]*model.UserAggregate
}

func (a *UserAggregates) Len() int { return len(a.order) }

func (a *UserAggregates) Get(userID string) (model.UserAggregate, bool) {
	agg, ok := a.byID[userID]
	if !ok {
		return model.UserAggregate{}, false
	}
	return *agg, true
}

// List returns the aggregates in first-appearance order.
func (a *UserAggregates) List() []model.UserAggregate {
	out := make([]model.UserAggregate, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.byID[id])
	}
	return out
}

func (a *UserAggregates) entry(u *model.UserIdentity) *model.UserAggregate {
	if agg, ok := a.byID[u.ID]; ok {
		return agg
	}
	agg := &model.UserAggregate{User: *u}
	a.byID[u.ID] = agg
	a.order = append(a.order, u.ID)
	return agg
}

func aggregatesFromList(list []model.UserAggregate) *UserAggregates {
	a := &UserAggregates{byID: make(map[string]*model.UserAggregate, len(list))}
	for i := range list {
		agg := list[i]
		a.byID[agg.User.ID] = &agg
		a.order = append(a.order, agg.User.ID)
	}
	return a
}

// AggregateByUser groups bookings by their embedded owner in one pass over
// flights followed by one pass over hotels. Bookings without an owner are
// dropped. Per-user lists keep input order.
func AggregateByUser(flights []model.FlightBooking, hotels []model.HotelBooking) *UserAggregates {
	a := &UserAggregates{byID: make(map[string]*model.UserAggregate)}
	for _, f := range flights {
		if f.User == nil {
			continue
		}
		agg := a.entry(f.User)
		agg.Flights = append(agg.Flights, f)
	}
	for _, h := range hotels {
		if h.User == nil {
			continue
		}
		agg := a.entry(h.User)
		agg.Hotels = append(agg.Hotels, h)
	}
	return a
}

// SummarizeAggregate counts a user's bookings and totals their value.
func SummarizeAggregate(agg model.UserAggregate) model.AggregateSummary {
	return model.AggregateSummary{
		BookingCount: len(agg.Flights) + len(agg.Hotels),
		TotalValue:   SumRawTotals(agg.Flights, agg.Hotels),
	}
}

// SumRawTotals adds TotalPrice across flights and hotels as plain numbers.
// Currencies are NOT converted: a user holding EUR and JPY bookings gets a
// meaningless sum. A currency-aware total should replace this function, not
// the grouping above.
func SumRawTotals(flights []model.FlightBooking, hotels []model.HotelBooking) float64 {
	var total float64
	for _, f := range flights {
		total += f.TotalPrice
	}
	for _, h := range hotels {
		total += h.TotalPrice
	}
	return total
}

// UserCard pairs an aggregate with its summary for card views.
type UserCard struct {
	Aggregate model.UserAggregate    `json:"aggregate"`
	Summary   model.AggregateSummary `json:"summary"`
}

func Cards(aggs *UserAggregates) []UserCard {
	list := aggs.List()
	out := make([]UserCard, 0, len(list))
	for _, agg := range list {
		out = append(out, UserCard{Aggregate: agg, Summary: SummarizeAggregate(agg)})
	}
	return out
}

// AggregateMemo memoizes AggregateByUser by a content hash of its inputs.
// A nil cache disables memoization.
type AggregateMemo struct {
	cache repository.AggregateCache
	log   *zerolog.Logger
}

func NewAggregateMemo(cache repository.AggregateCache, logger *zerolog.Logger) *AggregateMemo {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "AggregateMemo").Logger()
	return &AggregateMemo{cache: cache, log: &l}
}

func (m *AggregateMemo) Aggregate(ctx context.Context, flights []model.FlightBooking, hotels []model.HotelBooking) *UserAggregates {
	if m == nil || m.cache == nil {
		return AggregateByUser(flights, hotels)
	}
	key, err := ContentKey(flights, hotels)
	if err != nil {
		m.log.Warn().Err(err).Msg("hash bookings")
		return AggregateByUser(flights, hotels)
	}
	if list, ok, err := m.cache.Get(ctx, key); err != nil {
		m.log.Warn().Err(err).Msg("aggregate cache get")
	} else if ok {
		metrics.IncCacheRequest("aggregate", "hit")
		return aggregatesFromList(list)
	}
	metrics.IncCacheRequest("aggregate", "miss")

	aggs := AggregateByUser(flights, hotels)
	if err := m.cache.Set(ctx, key, aggs.List()); err != nil {
		m.log.Warn().Err(err).Msg("aggregate cache set")
	}
	return aggs
}

// ContentKey hashes the two booking lists into a cache key.
func ContentKey(flights []model.FlightBooking, hotels []model.HotelBooking) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	if err := enc.Encode(flights); err != nil {
		return "", err
	}
	if err := enc.Encode(hotels); err != nil {
		return "", err
	}
	return "aggregate:" + hex.EncodeToString(h.Sum(nil)), nil
}
