package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PostgresRepo persists calls in the calls table.
type PostgresRepo struct {
	db *sql.DB
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

const callColumns = `id, call_id, agent_id, start_timestamp, end_timestamp, duration_ms, cost,
       transcript, call_summary, user_sentiment, recording_url, call_successful, disconnection_reason,
       created_at, updated_at`

func scanCall(row interface{ Scan(...any) error }) (Call, error) {
	var c Call
	err := row.Scan(
		&c.ID,
		&c.CallID,
		&c.AgentID,
		&c.StartTimestamp,
		&c.EndTimestamp,
		&c.DurationMs,
		&c.Cost,
		&c.Transcript,
		&c.Summary,
		&c.Sentiment,
		&c.RecordingURL,
		&c.Successful,
		&c.DisconnectionReason,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// whereClause renders Filter as SQL. Every fragment is a fixed string;
// only values travel through args.
func whereClause(f Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.AgentID != "" {
		add("agent_id = $%d", f.AgentID)
	}
	if f.Sentiment != "" {
		add("user_sentiment = $%d", f.Sentiment)
	}
	if f.Successful != nil {
		add("call_successful = $%d", *f.Successful)
	}
	if f.FromMs > 0 {
		add("start_timestamp >= $%d", f.FromMs)
	}
	if f.ToMs > 0 {
		add("start_timestamp <= $%d", f.ToMs)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(transcript ILIKE $%d OR call_summary ILIKE $%d OR user_sentiment ILIKE $%d OR disconnection_reason ILIKE $%d)",
			n, n, n, n,
		))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(s Sort) string {
	switch s {
	case SortDurationDesc:
		return "ORDER BY duration_ms DESC, id ASC"
	case SortCostDesc:
		return "ORDER BY cost DESC, id ASC"
	default:
		return "ORDER BY start_timestamp DESC, id ASC"
	}
}

func (r *PostgresRepo) GetByCallID(ctx context.Context, callID string) (Call, error) {
	q := fmt.Sprintf("SELECT %s FROM calls WHERE call_id = $1", callColumns)
	c, err := scanCall(r.db.QueryRowContext(ctx, q, callID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func (r *PostgresRepo) List(ctx context.Context, f Filter, s Sort, p Page) ([]Call, int, error) {
	where, args := whereClause(f)

	total, err := r.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM calls %s %s LIMIT %d OFFSET %d",
		callColumns, where, orderClause(s), p.Limit, p.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Upsert(ctx context.Context, c Call) (Call, error) {
	if err := c.Validate(); err != nil {
		return Call{}, err
	}
	now := r.clock().UTC()
	// created_at survives conflicts, so created_at == updated_at
	// identifies rows written for the first time.
	const q = `
INSERT INTO calls (
  call_id, agent_id, start_timestamp, end_timestamp, duration_ms, cost,
  transcript, call_summary, user_sentiment, recording_url, call_successful, disconnection_reason,
  created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13
)
ON CONFLICT (call_id)
DO UPDATE SET agent_id = EXCLUDED.agent_id,
              start_timestamp = EXCLUDED.start_timestamp,
              end_timestamp = EXCLUDED.end_timestamp,
              duration_ms = EXCLUDED.duration_ms,
              cost = EXCLUDED.cost,
              transcript = EXCLUDED.transcript,
              call_summary = EXCLUDED.call_summary,
              user_sentiment = EXCLUDED.user_sentiment,
              recording_url = EXCLUDED.recording_url,
              call_successful = EXCLUDED.call_successful,
              disconnection_reason = EXCLUDED.disconnection_reason,
              updated_at = EXCLUDED.updated_at
RETURNING id, call_id, agent_id, start_timestamp, end_timestamp, duration_ms, cost,
       transcript, call_summary, user_sentiment, recording_url, call_successful, disconnection_reason,
       created_at, updated_at
`
	return scanCall(r.db.QueryRowContext(ctx, q,
		c.CallID,
		c.AgentID,
		c.StartTimestamp,
		c.EndTimestamp,
		c.DurationMs,
		c.Cost,
		c.Transcript,
		c.Summary,
		c.Sentiment,
		c.RecordingURL,
		c.Successful,
		c.DisconnectionReason,
		now,
	))
}

func (r *PostgresRepo) Count(ctx context.Context, f Filter) (int, error) {
	where, args := whereClause(f)
	var total int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM calls %s", where), args...).Scan(&total)
	return total, err
}

func (r *PostgresRepo) SumCost(ctx context.Context, f Filter) (float64, error) {
	where, args := whereClause(f)
	var sum float64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COALESCE(SUM(cost), 0) FROM calls %s", where), args...).Scan(&sum)
	return sum, err
}

func (r *PostgresRepo) SumDurationMs(ctx context.Context, f Filter) (int64, error) {
	where, args := whereClause(f)
	var sum int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COALESCE(SUM(duration_ms), 0) FROM calls %s", where), args...).Scan(&sum)
	return sum, err
}

func (r *PostgresRepo) GroupCount(ctx context.Context, f Filter, field GroupField) (map[string]int, error) {
	var col string
	switch field {
	case GroupBySentiment:
		col = "user_sentiment"
	case GroupByDisconnectionReason:
		col = "disconnection_reason"
	default:
		return nil, fmt.Errorf("calls: unsupported group field %q", field)
	}

	where, args := whereClause(f)
	q := fmt.Sprintf("SELECT %s, COUNT(*) FROM calls %s GROUP BY %s", col, where, col)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
