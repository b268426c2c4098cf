package query

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinicapi/clinic/internal/platform/db"
	"github.com/clinicapi/clinic/pkg/pagination"
)

// List counts matching rows, validates the requested page against the count,
// then fetches that page with scan applied to each row.
func List[T any](ctx context.Context, q db.Querier, b *Builder, p pagination.Params, scan func(pgx.Rows) (T, error)) ([]T, int, error) {
	var total int
	if err := q.QueryRow(ctx, b.CountSQL(), b.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}
	if err := p.Check(total); err != nil {
		return nil, total, err
	}
	if total == 0 {
		return nil, 0, nil
	}

	rows, err := q.Query(ctx, b.DataSQL(), b.DataArgs(p.PerPage, p.Offset())...)
	if err != nil {
		return nil, total, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, total, fmt.Errorf("scan: %w", err)
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}
