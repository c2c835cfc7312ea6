package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// DefaultCopyBatch is the number of rows sent per COPY statement.
const DefaultCopyBatch = 5000

// CopyFrom bulk-inserts rows into a table using PostgreSQL COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	copySource := pgx.CopyFromRows(rows)
	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, copySource)
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}

	return n, nil
}

// CopyInBatches splits rows into COPY statements of at most batch rows.
// Each batch is atomic; the returned count covers the batches that landed.
func CopyInBatches(ctx context.Context, pool Pool, table string, columns []string, rows [][]any, batch int) (int64, error) {
	if batch <= 0 {
		batch = DefaultCopyBatch
	}
	var total int64
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		n, err := CopyFrom(ctx, pool, table, columns, rows[start:end])
		total += n
		if err != nil {
			return total, eris.Wrapf(err, "db: batch at row %d", start)
		}
	}
	return total, nil
}
