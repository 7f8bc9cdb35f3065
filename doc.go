/*
Package byplay provides a PostgreSQL-backed durable job queue built on
row-level skip-locked reservation.

# Overview

Producers enqueue named function invocations into queues with ScheduleTo or
Schedule. A pool of worker goroutines, managed by the worker subpackage,
drains those queues in parallel. Each job runs inside its own database
transaction: reservation and the final state-marking UPDATE share one
top-level transaction, while the job's own SQL runs under a SAVEPOINT that
can be rolled back on failure without losing the reservation lock.

# Basic Usage

	import (
		"context"
		"database/sql"

		"github.com/domonda/go-sqldb/db"
		"github.com/domonda/go-sqldb/pqconn"

		"github.com/metametadata/byplay"
		"github.com/metametadata/byplay/worker"
	)

	func main() {
		ctx := context.Background()

		byplay.Register("send-email", byplay.Func(func(ctx context.Context, jc *byplay.JobContext, args []any) error {
			// use jc.Tx for statements that should roll back with the job
			return nil
		}))

		db.SetConn(pqconn.MustNew(ctx, sqldbConfig))
		if err := byplay.Install(ctx); err != nil {
			panic(err)
		}

		sqlDB, _ := sql.Open("postgres", dsn)
		w := worker.New(sqlDB, worker.Config{ThreadsNum: 4})
		w.Start()
		defer w.Join()
		defer w.Interrupt()

		byplay.ScheduleTo(ctx, "emails", "send-email", "user@example.com")
	}

# Queues

A queue is a symbolic tag with no namespace component (see Encode/Decode).
At the scheduling API (ScheduleTo, Schedule) the empty tag means the default
queue, stored on disk as "default".

# Reservation

ExecuteOnce reserves the oldest NEW row from the first queue in a priority list
that has one, using `FOR UPDATE SKIP LOCKED` so concurrent workers never
double-claim a row. An empty queue list reserves across all queues ordered
by id.

# Job Context

Job callables receive a *JobContext exposing both the raw *sql.Conn used
for the enclosing transaction and the *sql.Tx wrapper through which the
callable should run its own statements. Both refer to the same underlying
connection by construction.

# Error Handling

All errors are wrapped using github.com/domonda/go-errs for stack traces.
A job's own error is never returned from ExecuteOnce — it is captured in
the returned Ack and reported to the worker's on_fail/on_ack callbacks.

# Testing

DB-free unit tests cover the queue codec, the args codec, and reservation
SQL construction. Integration tests that need a live PostgreSQL connection
use an env.NewLoader + pqconn.MustNew setup; see install_test.go and
exec_test.go.
*/
package byplay
