package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

// requires 字段以逗号分隔的形式存储
const requiresSeparator = ","

func (r *Repository) GetAllEfficiencyEntries() ([]domain.EfficiencyEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT worker_id, facility, product, elite, level, efficiency, requires
		FROM efficiency_entries
		ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.EfficiencyEntry, 0)
	for rows.Next() {
		var (
			entry    domain.EfficiencyEntry
			facility string
			product  sql.NullString
			requires sql.NullString
		)

		dst := []any{&entry.WorkerID, &facility, &product, &entry.Tier, &entry.Level, &entry.Efficiency, &requires}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		entry.Facility = domain.FacilityType(facility)
		if product.Valid {
			entry.Product = domain.Product(product.String)
		}
		if requires.Valid && requires.String != "" {
			entry.Requires = strings.Split(requires.String, requiresSeparator)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ReplaceEfficiencyEntries 在一个事务中整体替换效率表
func (r *Repository) ReplaceEfficiencyEntries(entries []domain.EfficiencyEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM efficiency_entries`); err != nil {
		return err
	}

	query := `
		INSERT INTO efficiency_entries (worker_id, facility, product, elite, level, efficiency, requires)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, e := range entries {
		product := sql.NullString{String: string(e.Product), Valid: e.Product != ""}
		requires := sql.NullString{String: strings.Join(e.Requires, requiresSeparator), Valid: len(e.Requires) > 0}

		args := []any{e.WorkerID, string(e.Facility), product, e.Tier, e.Level, e.Efficiency, requires}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
