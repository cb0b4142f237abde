package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"bdexports/internal/store"
	"bdexports/pkg/contracts/domain"
)

const periodLayout = "2006-01-02"

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ReplaceMonthly(ctx context.Context, records []domain.MonthlyRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM monthly_exports`); err != nil {
		return fmt.Errorf("sqlite: clear monthly_exports: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO monthly_exports (hs_code, country, period, month, usd, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		period := r.Period
		if period.IsZero() {
			if period, err = domain.ParseMonthLabel(r.Month); err != nil {
				return err
			}
		}
		if _, err = stmt.ExecContext(ctx, r.HSCode, r.Country, period.Format(periodLayout), r.Month, r.USD, now); err != nil {
			return fmt.Errorf("sqlite: insert %s/%s/%s: %w", r.HSCode, r.Country, r.Month, err)
		}
	}

	return tx.Commit()
}

func (s *Store) QueryMonthly(ctx context.Context, filter store.MonthlyFilter) ([]domain.MonthlyRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.HSCode != "" {
		where = append(where, "hs_code = ?")
		args = append(args, filter.HSCode)
	}
	if filter.Country != "" {
		where = append(where, "country = ?")
		args = append(args, filter.Country)
	}
	if !filter.From.IsZero() {
		where = append(where, "period >= ?")
		args = append(args, filter.From.Format(periodLayout))
	}
	if !filter.To.IsZero() {
		where = append(where, "period <= ?")
		args = append(args, filter.To.Format(periodLayout))
	}

	query := `SELECT hs_code, country, period, month, usd FROM monthly_exports`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY hs_code, country, period, rowid"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MonthlyRecord
	for rows.Next() {
		var (
			r      domain.MonthlyRecord
			period string
		)
		if err := rows.Scan(&r.HSCode, &r.Country, &period, &r.Month, &r.USD); err != nil {
			return nil, err
		}
		if r.Period, err = time.Parse(periodLayout, period); err != nil {
			return nil, fmt.Errorf("sqlite: bad period %q: %w", period, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListCountries(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "country")
}

func (s *Store) ListHSCodes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "hs_code")
}

// distinct lists the sorted distinct values of a fixed column.
func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT `+column+` FROM monthly_exports ORDER BY `+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS monthly_exports (
			hs_code TEXT NOT NULL,
			country TEXT NOT NULL,
			period TEXT NOT NULL,
			month TEXT NOT NULL,
			usd REAL NOT NULL,
			loaded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_monthly_exports_key
			ON monthly_exports (hs_code, country, period);`,
		`CREATE INDEX IF NOT EXISTS idx_monthly_exports_country
			ON monthly_exports (country, period);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}
