package planner

import (
	"context"
	"strings"

	"travel-planner-client/internal/domain/ports/adapter"
)

var _ adapter.TravelAssistant = OfflineAssistant{}

// OfflineAssistant produces a fixed plan for every turn without any network
// access. Used by -dev runs and demos.
type OfflineAssistant struct{}

const offlinePlan = "Analyze user query, identify destinations, dates, preferences, and create " +
	"focused sub-queries to guide requirements gathering and itinerary planning."

func (OfflineAssistant) SendMessage(ctx context.Context, req adapter.SendRequest) (adapter.SendResponse, error) {
	if err := ctx.Err(); err != nil {
		return adapter.SendResponse{}, err
	}
	q := strings.TrimSpace(req.Message)
	return adapter.SendResponse{
		Message: PlanCreated,
		Plan:    offlinePlan,
		SubQueries: []string{
			q + " – destinations & regions",
			q + " – dates & duration",
			q + " – activities & interests",
		},
	}, nil
}
