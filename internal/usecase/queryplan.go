package usecase

type PlanState int

const (
	PlanHidden PlanState = iota
	PlanLoading
	PlanShown
)

// PlanFragment is what a surface should display for a query plan.
type PlanFragment struct {
	State  PlanState `json:"state"`
	Plan   string    `json:"plan,omitempty"`
	Badges []string  `json:"badges,omitempty"`
}

func (f PlanFragment) Visible() bool { return f.State != PlanHidden }

// RenderQueryPlan maps an optional plan and its sub-queries to a display
// fragment. Loading wins over everything else; an empty plan renders nothing;
// badges keep the sub-query order, duplicates included.
func RenderQueryPlan(plan string, subQueries []string, loading bool) PlanFragment {
	if loading {
		return PlanFragment{State: PlanLoading}
	}
	if plan == "" {
		return PlanFragment{State: PlanHidden}
	}
	f := PlanFragment{State: PlanShown, Plan: plan}
	if len(subQueries) > 0 {
		f.Badges = append(make([]string, 0, len(subQueries)), subQueries...)
	}
	return f
}
