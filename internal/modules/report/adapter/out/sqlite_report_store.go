package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"webtally/internal/modules/report/domain"
	reportout "webtally/internal/modules/report/port/out"
	apperrors "webtally/internal/platform/errors"
)

type SQLiteReportStore struct {
	db *sql.DB
}

func NewSQLiteReportStore(db *sql.DB) (reportout.ReportStore, error) {
	store := &SQLiteReportStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteReportStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS daily_reports (
  date TEXT PRIMARY KEY,
  total_time INTEGER NOT NULL,
  productive_time INTEGER NOT NULL,
  distracting_time INTEGER NOT NULL,
  productivity_score INTEGER NOT NULL,
  payload TEXT NOT NULL,
  generated_at TEXT NOT NULL,
  synced_at TEXT
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create daily_reports table: %w", err)
	}
	return nil
}

// Save upserts by date. A regenerated report needs syncing again.
func (s *SQLiteReportStore) Save(ctx context.Context, report domain.DailyReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	const stmt = `
INSERT INTO daily_reports (date, total_time, productive_time, distracting_time, productivity_score, payload, generated_at, synced_at)
VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
ON CONFLICT(date) DO UPDATE SET
  total_time=excluded.total_time,
  productive_time=excluded.productive_time,
  distracting_time=excluded.distracting_time,
  productivity_score=excluded.productivity_score,
  payload=excluded.payload,
  generated_at=excluded.generated_at,
  synced_at=NULL;
`
	_, err = s.db.ExecContext(ctx, stmt,
		report.Date,
		report.TotalTime,
		report.ProductiveTime,
		report.DistractingTime,
		report.ProductivityScore,
		string(payload),
		report.GeneratedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

func (s *SQLiteReportStore) Get(ctx context.Context, date string) (domain.DailyReport, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload, synced_at FROM daily_reports WHERE date = ?`, date)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DailyReport{}, fmt.Errorf("%w: report %s", apperrors.ErrNotFound, date)
		}
		return domain.DailyReport{}, err
	}
	return report, nil
}

func (s *SQLiteReportStore) Recent(ctx context.Context, limit int) ([]domain.DailyReport, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload, synced_at FROM daily_reports ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	return collect(rows)
}

func (s *SQLiteReportStore) Pending(ctx context.Context) ([]domain.DailyReport, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload, synced_at FROM daily_reports WHERE synced_at IS NULL ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("query pending reports: %w", err)
	}
	return collect(rows)
}

// MarkSynced stamps each version only while it is still the stored one. A
// report regenerated after it was read stays pending.
func (s *SQLiteReportStore) MarkSynced(ctx context.Context, versions []domain.Version, at time.Time) error {
	if len(versions) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark synced: %w", err)
	}
	const stmt = `UPDATE daily_reports SET synced_at = ? WHERE date = ? AND generated_at = ?`
	stamp := at.UTC().Format(time.RFC3339Nano)
	for _, version := range versions {
		generated := version.GeneratedAt.UTC().Format(time.RFC3339Nano)
		if _, err := tx.ExecContext(ctx, stmt, stamp, version.Date, generated); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("mark report %s synced: %w", version.Date, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mark synced: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (domain.DailyReport, error) {
	var payload string
	var syncedAt sql.NullString
	if err := row.Scan(&payload, &syncedAt); err != nil {
		return domain.DailyReport{}, err
	}
	report := domain.DailyReport{}
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return domain.DailyReport{}, fmt.Errorf("decode report: %w", err)
	}
	report.SyncedAt = time.Time{}
	if syncedAt.Valid {
		parsed, err := time.Parse(time.RFC3339Nano, syncedAt.String)
		if err != nil {
			return domain.DailyReport{}, fmt.Errorf("decode synced_at: %w", err)
		}
		report.SyncedAt = parsed
	}
	return report, nil
}

func collect(rows *sql.Rows) ([]domain.DailyReport, error) {
	defer rows.Close()
	out := []domain.DailyReport{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}
