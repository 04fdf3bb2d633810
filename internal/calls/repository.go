package calls

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("calls: not found")

// Filter narrows call queries. Zero values mean "no constraint".
type Filter struct {
	AgentID    string
	Sentiment  string
	Successful *bool
	FromMs     int64 // inclusive lower bound on start_timestamp
	ToMs       int64 // inclusive upper bound on start_timestamp

	// Search is a case-insensitive substring matched against
	// transcript, summary, sentiment and disconnection reason (OR).
	Search string
}

// Sort keys. All sort descending with primary key as tiebreaker so
// pagination is stable across identical values.
type Sort string

const (
	SortStartDesc    Sort = "start_time"
	SortDurationDesc Sort = "duration"
	SortCostDesc     Sort = "cost"
)

func (s Sort) Valid() bool {
	switch s {
	case SortStartDesc, SortDurationDesc, SortCostDesc:
		return true
	default:
		return false
	}
}

type Page struct {
	Limit  int
	Offset int
}

// GroupField names the columns group-counts may target. Whitelisted so
// no caller-controlled string ever reaches SQL.
type GroupField string

const (
	GroupBySentiment           GroupField = "user_sentiment"
	GroupByDisconnectionReason GroupField = "disconnection_reason"
)

type Repository interface {
	GetByCallID(ctx context.Context, callID string) (Call, error)
	List(ctx context.Context, f Filter, s Sort, p Page) ([]Call, int, error)

	// Upsert writes the call keyed by its provider call_id and returns
	// the stored row. Last write wins on conflict.
	Upsert(ctx context.Context, c Call) (Call, error)

	Count(ctx context.Context, f Filter) (int, error)
	SumCost(ctx context.Context, f Filter) (float64, error)
	SumDurationMs(ctx context.Context, f Filter) (int64, error)
	GroupCount(ctx context.Context, f Filter, field GroupField) (map[string]int, error)
}
