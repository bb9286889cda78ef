package store

import (
	"context"
	"encoding/json"
	"time"
)

// Run is one pipeline execution as recorded for the report command.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Role       string
	Location   string
	Raw        int
	Valid      int
	Deduped    int
	Final      int
	New        int
	Sources    map[string]int // records per source
}

func (d *DB) RecordRun(ctx context.Context, r Run) error {
	sources, err := json.Marshal(r.Sources)
	if err != nil {
		return err
	}
	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO runs (started_at, finished_at, role, location, raw_count, valid_count, deduped_count, final_count, new_count, sources)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.StartedAt.UTC().Format(time.RFC3339), r.FinishedAt.UTC().Format(time.RFC3339),
		r.Role, r.Location, r.Raw, r.Valid, r.Deduped, r.Final, r.New, string(sources),
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (d *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT started_at, finished_at, role, location, raw_count, valid_count, deduped_count, final_count, new_count, sources
FROM runs
ORDER BY id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			sources           string
		)
		if err := rows.Scan(&started, &finished, &r.Role, &r.Location,
			&r.Raw, &r.Valid, &r.Deduped, &r.Final, &r.New, &sources); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		_ = json.Unmarshal([]byte(sources), &r.Sources)
		out = append(out, r)
	}
	return out, rows.Err()
}
