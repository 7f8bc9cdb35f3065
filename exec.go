package byplay

import (
	"context"
	"database/sql"
	"time"

	"github.com/domonda/go-errs"
)

// DetectNestedTransactions, if set, makes ExecuteOnce check for a
// transaction already open on the given connection and fail with
// ErrAlreadyInTransaction instead of silently finalising the caller's
// outer transaction early. Off by default: the check is a heuristic
// (see exec.go) and the nested-transaction caveat is documented as
// advisory, not a guaranteed runtime error.
var DetectNestedTransactions = false

// ExecuteOnce performs one full execution cycle on conn and returns an ack.
// queues is the priority-ordered list to reserve from; nil or empty reserves
// across all queues in global id order. jobTimeout bounds the context
// passed to the reserved job's callable; zero or negative disables the
// timeout. Callers that want the module's default should pass
// DefaultJobTimeout, or use worker.Config.JobTimeout, which defaults to it.
//
// conn must not already be inside a transaction. Nested top-level
// transactions are forbidden by the underlying database: if conn is already
// inside one, the commit below prematurely finalises the caller's
// transaction instead of just this cycle's. This is a documented hazard,
// not a silent error; see DetectNestedTransactions for an opt-in check.
func ExecuteOnce(ctx context.Context, conn *sql.Conn, queues []string, jobTimeout time.Duration) (ack Ack, err error) {
	defer errs.WrapWithFuncParams(&err, ctx, queues, jobTimeout)

	if DetectNestedTransactions {
		if already, checkErr := connAlreadyInTransaction(ctx, conn); checkErr == nil && already {
			return Ack{}, ErrAlreadyInTransaction
		}
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return Ack{}, errs.Errorf("begin transaction: %w", err)
	}

	job, err := reserve(ctx, tx, queues)
	if err != nil {
		_ = tx.Rollback()
		return Ack{}, err
	}
	if job == nil {
		// Nothing to do: commit trivially, there is no row lock to hold.
		if err := tx.Commit(); err != nil {
			return Ack{}, errs.Errorf("commit empty cycle: %w", err)
		}
		return Ack{}, nil
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT before"); err != nil {
		_ = tx.Rollback()
		return Ack{}, errs.Errorf("savepoint: %w", err)
	}

	fn, lookupErr := lookup(job.Job)
	if lookupErr != nil {
		_ = tx.Rollback()
		return Ack{}, lookupErr
	}

	args, argsErr := decodeArgs(job.Args)
	if argsErr != nil {
		_ = tx.Rollback()
		return Ack{}, argsErr
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if jobTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, jobTimeout)
		defer cancel()
	}

	jc := &JobContext{Raw: conn, Tx: tx, Job: job}
	jobErr := invoke(callCtx, fn, jc, args)

	if jobErr == nil {
		done, err := markState(ctx, tx, job.ID, StateDone)
		if err != nil {
			_ = tx.Rollback()
			return Ack{}, err
		}
		if err := tx.Commit(); err != nil {
			return Ack{}, errs.Errorf("commit: %w", err)
		}
		return Ack{Job: done}, nil
	}

	if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT before"); err != nil {
		_ = tx.Rollback()
		return Ack{}, errs.Errorf("rollback to savepoint: %w", err)
	}

	failed, err := markState(ctx, tx, job.ID, StateFailed)
	if err != nil {
		_ = tx.Rollback()
		return Ack{}, err
	}
	if err := tx.Commit(); err != nil {
		return Ack{}, errs.Errorf("commit: %w", err)
	}

	OnError(jobErr)
	log.ErrorCtx(ctx, "Job failed").Err(jobErr).Int64("jobID", failed.ID).Str("job", failed.Job).Log()

	return Ack{Job: failed, Err: jobErr}, nil
}

// invoke calls fn, converting a panic (including runtime assertion
// failures) into an error the same way the savepoint rollback above
// handles a returned error: both leave the job's own SQL undone and the
// row marked FAILED.
func invoke(ctx context.Context, fn Func, jc *JobContext, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.AsErrorWithDebugStack(r)
		}
	}()
	return fn(ctx, jc, args)
}

func markState(ctx context.Context, tx *sql.Tx, id int64, state State) (*Job, error) {
	row := tx.QueryRowContext(ctx,
		/*sql*/ `UPDATE byplay SET state = $1 WHERE id = $2 RETURNING id, job, args, state, queue`,
		state, id,
	)
	var job Job
	if err := row.Scan(&job.ID, &job.Job, &job.Args, &job.State, &job.Queue); err != nil {
		return nil, errs.Errorf("mark job %d as %s: %w", id, state, err)
	}
	return &job, nil
}

// connAlreadyInTransaction is a best-effort heuristic: it reports whether
// a transaction with an assigned transaction id is already open on conn.
// A connection can be inside a transaction without having an assigned xid
// yet (nothing has written), so this check can miss a nested transaction;
// it is advisory, not a guarantee.
func connAlreadyInTransaction(ctx context.Context, conn *sql.Conn) (bool, error) {
	var assigned sql.NullBool
	err := conn.QueryRowContext(ctx, "SELECT pg_current_xact_id_if_assigned() IS NOT NULL").Scan(&assigned)
	if err != nil {
		return false, err
	}
	return assigned.Valid && assigned.Bool, nil
}
