package byplay

import (
	"context"
	"database/sql"
	"errors"

	"github.com/domonda/go-errs"
)

// reserveSQL is the load-bearing query of the whole engine: FOR UPDATE
// SKIP LOCKED means concurrent transactions each skip rows already locked
// by peers, so N workers claim N distinct rows without blocking. ORDER BY
// id gives FIFO. LIMIT 1 bounds lock acquisition to a single row.
const reserveSQL = /*sql*/ `
	SELECT id, job, args, state, queue
	FROM byplay
	WHERE state = 0
	ORDER BY id
	FOR UPDATE SKIP LOCKED
	LIMIT 1
`

const reserveQueueSQL = /*sql*/ `
	SELECT id, job, args, state, queue
	FROM byplay
	WHERE state = 0 AND queue = $1
	ORDER BY id
	FOR UPDATE SKIP LOCKED
	LIMIT 1
`

// reserve locks and returns the oldest NEW row, trying queues in order and
// stopping at the first one with a candidate. An empty queues list reserves
// across all queues, ordered globally by id. The row is locked only; its
// state is not changed here. The lock is held until tx ends.
func reserve(ctx context.Context, tx *sql.Tx, queues []string) (*Job, error) {
	if len(queues) == 0 {
		return reserveRow(ctx, tx, reserveSQL)
	}
	for _, queue := range queues {
		encoded, err := Encode(queue)
		if err != nil {
			return nil, err
		}
		job, err := reserveRow(ctx, tx, reserveQueueSQL, encoded)
		if err != nil {
			return nil, err
		}
		if job != nil {
			return job, nil
		}
	}
	return nil, nil
}

func reserveRow(ctx context.Context, tx *sql.Tx, query string, args ...any) (*Job, error) {
	row := tx.QueryRowContext(ctx, query, args...)

	var job Job
	err := row.Scan(&job.ID, &job.Job, &job.Args, &job.State, &job.Queue)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, errs.Errorf("reserve job: %w", err)
	default:
		return &job, nil
	}
}
