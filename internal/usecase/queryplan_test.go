//go:build !integration

package usecase

import (
	"reflect"
	"testing"
)

func TestRenderQueryPlan(t *testing.T) {
	tests := []struct {
		name       string
		plan       string
		subQueries []string
		loading    bool
		want       PlanFragment
	}{
		{
			name:    "loading wins",
			plan:    "Search flights",
			loading: true,
			want:    PlanFragment{State: PlanLoading},
		},
		{
			name: "no plan",
			want: PlanFragment{State: PlanHidden},
		},
		{
			name:       "sub-queries without plan are hidden",
			subQueries: []string{"a"},
			want:       PlanFragment{State: PlanHidden},
		},
		{
			name: "plan without sub-queries",
			plan: "Search flights",
			want: PlanFragment{State: PlanShown, Plan: "Search flights"},
		},
		{
			name:       "badges keep order and duplicates",
			plan:       "Search",
			subQueries: []string{"b", "a", "b"},
			want:       PlanFragment{State: PlanShown, Plan: "Search", Badges: []string{"b", "a", "b"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := RenderQueryPlan(tc.plan, tc.subQueries, tc.loading)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRenderQueryPlan_CopiesBadges(t *testing.T) {
	sq := []string{"x"}
	f := RenderQueryPlan("p", sq, false)
	sq[0] = "mutated"
	if f.Badges[0] != "x" {
		t.Fatal("fragment must not alias the caller's slice")
	}
	if !f.Visible() || (PlanFragment{}).Visible() {
		t.Fatal("Visible mismatch")
	}
}
