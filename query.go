package byplay

import (
	"context"

	"github.com/domonda/go-errs"
	"github.com/domonda/go-sqldb"
	"github.com/domonda/go-sqldb/db"
)

// GetJob fetches a single row by id.
func GetJob(ctx context.Context, id int64) (job *Job, err error) {
	defer errs.WrapWithFuncParams(&err, ctx, id)

	job = new(Job)
	err = db.QueryRow(ctx,
		/*sql*/ `SELECT id, job, args, state, queue FROM byplay WHERE id = $1`,
		id,
	).ScanStruct(job)
	if err != nil {
		return nil, sqldb.ReplaceErrNoRows(err, nil)
	}
	return job, nil
}

// ListPending returns every NEW row in a queue, oldest first. An empty
// queue lists across all queues.
func ListPending(ctx context.Context, queue string) (jobs []*Job, err error) {
	return listByState(ctx, StateNew, queue)
}

// ListFailed returns every FAILED row in a queue, oldest first. An empty
// queue lists across all queues.
func ListFailed(ctx context.Context, queue string) (jobs []*Job, err error) {
	return listByState(ctx, StateFailed, queue)
}

func listByState(ctx context.Context, state State, queue string) (jobs []*Job, err error) {
	defer errs.WrapWithFuncParams(&err, ctx, state, queue)

	if queue == "" {
		err = db.QueryRows(ctx,
			/*sql*/ `SELECT id, job, args, state, queue FROM byplay WHERE state = $1 ORDER BY id`,
			state,
		).ScanStructSlice(&jobs)
		return jobs, err
	}

	encoded, err := Encode(queue)
	if err != nil {
		return nil, err
	}
	err = db.QueryRows(ctx,
		/*sql*/ `SELECT id, job, args, state, queue FROM byplay WHERE state = $1 AND queue = $2 ORDER BY id`,
		state, encoded,
	).ScanStructSlice(&jobs)
	return jobs, err
}

// CountByState returns the number of rows in each lifecycle state, keyed
// by State.
func CountByState(ctx context.Context) (counts map[State]int, err error) {
	defer errs.WrapWithFuncParams(&err, ctx)

	type row struct {
		State State `db:"state"`
		Count int   `db:"count"`
	}
	var rows []row
	err = db.QueryRows(ctx,
		/*sql*/ `SELECT state, count(*) AS count FROM byplay GROUP BY state`,
	).ScanStructSlice(&rows)
	if err != nil {
		return nil, err
	}

	counts = make(map[State]int, len(rows))
	for _, r := range rows {
		counts[r.State] = r.Count
	}
	return counts, nil
}
