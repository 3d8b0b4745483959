//go:build !integration

package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"travel-planner-client/internal/domain/model"
)

func TestAggregateByUser(t *testing.T) {
	flights := []model.FlightBooking{
		flight("f1", 100, bob),
		flight("f2", 200, alice),
		flight("f3", 50, nil),
		flight("f4", 300, bob),
	}
	hotels := []model.HotelBooking{
		hotel("h1", 400, alice),
		hotel("h2", 10, nil),
	}

	aggs := AggregateByUser(flights, hotels)
	if aggs.Len() != 2 {
		t.Fatalf("expected 2 users, got %d", aggs.Len())
	}

	list := aggs.List()
	if list[0].User.ID != bob.ID || list[1].User.ID != alice.ID {
		t.Fatalf("users must be ordered by first appearance, got %s, %s", list[0].User.ID, list[1].User.ID)
	}

	b, ok := aggs.Get(bob.ID)
	if !ok {
		t.Fatal("bob missing")
	}
	if len(b.Flights) != 2 || b.Flights[0].ID != "f1" || b.Flights[1].ID != "f4" || len(b.Hotels) != 0 {
		t.Fatalf("unexpected bob aggregate %+v", b)
	}
	a, _ := aggs.Get(alice.ID)
	if len(a.Flights) != 1 || len(a.Hotels) != 1 {
		t.Fatalf("unexpected alice aggregate %+v", a)
	}

	total := 0
	for _, agg := range list {
		total += len(agg.Flights) + len(agg.Hotels)
	}
	if total != 4 {
		t.Fatalf("ownerless bookings must be dropped, counted %d", total)
	}
}

func TestAggregateByUser_Empty(t *testing.T) {
	aggs := AggregateByUser(nil, nil)
	if aggs.Len() != 0 || len(aggs.List()) != 0 {
		t.Fatal("expected no aggregates")
	}
	if _, ok := aggs.Get("nobody"); ok {
		t.Fatal("Get on empty aggregate must miss")
	}
}

func TestAggregateByUser_HotelOnlyUser(t *testing.T) {
	aggs := AggregateByUser(nil, []model.HotelBooking{hotel("h1", 1, alice)})
	a, ok := aggs.Get(alice.ID)
	if !ok || len(a.Flights) != 0 || len(a.Hotels) != 1 {
		t.Fatalf("unexpected aggregate %+v", a)
	}
}

func TestSummarizeAggregate(t *testing.T) {
	agg := model.UserAggregate{
		User:    *alice,
		Flights: []model.FlightBooking{flight("f1", 120.5, alice)},
		Hotels:  []model.HotelBooking{hotel("h1", 79.25, alice), hotel("h2", 0, alice)},
	}
	s := SummarizeAggregate(agg)
	if s.BookingCount != 3 {
		t.Fatalf("expected 3 bookings, got %d", s.BookingCount)
	}
	if math.Abs(s.TotalValue-199.75) > 1e-9 {
		t.Fatalf("expected 199.75, got %v", s.TotalValue)
	}
}

func TestSumRawTotals_IgnoresCurrency(t *testing.T) {
	f := flight("f1", 100, alice)
	f.Currency = "EUR"
	h := hotel("h1", 10000, alice)
	h.Currency = "JPY"
	if got := SumRawTotals([]model.FlightBooking{f}, []model.HotelBooking{h}); got != 10100 {
		t.Fatalf("expected raw sum 10100, got %v", got)
	}
}

func TestCards(t *testing.T) {
	aggs := AggregateByUser([]model.FlightBooking{flight("f1", 10, alice), flight("f2", 5, bob)}, nil)
	cards := Cards(aggs)
	if len(cards) != 2 || cards[0].Aggregate.User.ID != alice.ID || cards[0].Summary.BookingCount != 1 {
		t.Fatalf("unexpected cards %+v", cards)
	}
}

func TestAggregateMemo(t *testing.T) {
	ctx := context.Background()
	flights := []model.FlightBooking{flight("f1", 10, alice), flight("f2", 20, bob)}
	hotels := []model.HotelBooking{hotel("h1", 30, alice)}

	t.Run("hit after miss", func(t *testing.T) {
		cache := newMemAggregateCache()
		memo := NewAggregateMemo(cache, nil)

		first := memo.Aggregate(ctx, flights, hotels)
		second := memo.Aggregate(ctx, flights, hotels)
		if cache.sets != 1 || cache.gets != 2 {
			t.Fatalf("expected one set and two gets, got sets=%d gets=%d", cache.sets, cache.gets)
		}
		l1, l2 := first.List(), second.List()
		if len(l1) != len(l2) || l1[0].User.ID != l2[0].User.ID || l1[1].User.ID != l2[1].User.ID {
			t.Fatalf("cached aggregates differ: %+v vs %+v", l1, l2)
		}
		if _, ok := second.Get(bob.ID); !ok {
			t.Fatal("Get must work on cached aggregates")
		}
	})

	t.Run("content change misses", func(t *testing.T) {
		cache := newMemAggregateCache()
		memo := NewAggregateMemo(cache, nil)
		memo.Aggregate(ctx, flights, hotels)
		memo.Aggregate(ctx, flights[:1], hotels)
		if cache.sets != 2 {
			t.Fatalf("different inputs must not share a key, sets=%d", cache.sets)
		}
	})

	t.Run("cache error falls through", func(t *testing.T) {
		cache := newMemAggregateCache()
		cache.getErr = errors.New("redis down")
		memo := NewAggregateMemo(cache, nil)
		if got := memo.Aggregate(ctx, flights, hotels); got.Len() != 2 {
			t.Fatalf("expected computed aggregates, got %d", got.Len())
		}
	})

	t.Run("nil cache", func(t *testing.T) {
		var memo *AggregateMemo
		if got := memo.Aggregate(ctx, flights, hotels); got.Len() != 2 {
			t.Fatalf("nil memo must still aggregate, got %d", got.Len())
		}
	})
}

func TestContentKey(t *testing.T) {
	k1, err := ContentKey([]model.FlightBooking{flight("f1", 1, alice)}, nil)
	if err != nil {
		t.Fatalf("ContentKey: %v", err)
	}
	k2, _ := ContentKey([]model.FlightBooking{flight("f1", 1, alice)}, nil)
	k3, _ := ContentKey([]model.FlightBooking{flight("f1", 2, alice)}, nil)
	if k1 != k2 || k1 == k3 {
		t.Fatalf("keys must follow content: %s %s %s", k1, k2, k3)
	}
}
