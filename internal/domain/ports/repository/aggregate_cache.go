package repository

import (
	"context"

	"travel-planner-client/internal/domain/model"
)

// AggregateCache stores per-user groupings keyed by a content hash of the
// booking lists they were computed from.
type AggregateCache interface {
	Get(ctx context.Context, key string) ([]model.UserAggregate, bool, error)
	Set(ctx context.Context, key string, aggs []model.UserAggregate) error
}
