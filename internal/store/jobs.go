package store

import (
	"context"
	"fmt"
	"strings"

	"jobwatch-engine/internal/domain"

	"github.com/google/uuid"
)

// recordNamespace scopes the deterministic row ids.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("jobwatch-engine/jobs"))

// RecordID is a stable id for a record's identity fields, so reruns keep ids.
func RecordID(j domain.JobRecord) string {
	key := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(j.Company),
		strings.TrimSpace(j.Title),
		strings.TrimSpace(j.Location),
		j.PlatformSource,
	}, "\x1f"))
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

// ReplaceAll swaps the stored canonical set for recs in one transaction.
func (d *DB) ReplaceAll(ctx context.Context, recs []domain.JobRecord) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs;`); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO jobs (id, position, company, title, location, platform, date_posted, category, salary, link)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, j := range recs {
		if _, err := stmt.ExecContext(ctx,
			RecordID(j), i,
			j.Company, j.Title, j.Location, j.PlatformSource,
			j.DatePosted, string(j.PostingCategory), j.SalaryPackage, j.JobLink,
		); err != nil {
			return fmt.Errorf("insert job %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Load returns the stored canonical set in saved order. It satisfies merge.Baseline.
func (d *DB) Load(ctx context.Context) ([]domain.JobRecord, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT company, title, location, platform, date_posted, category, salary, link
FROM jobs
ORDER BY position ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.JobRecord
	for rows.Next() {
		var (
			j   domain.JobRecord
			cat string
		)
		if err := rows.Scan(&j.Company, &j.Title, &j.Location, &j.PlatformSource,
			&j.DatePosted, &cat, &j.SalaryPackage, &j.JobLink); err != nil {
			return nil, err
		}
		j.DatePostedRaw = j.DatePosted
		j.PostingCategory = domain.PostingCategory(cat)
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored records.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&n)
	return n, err
}
