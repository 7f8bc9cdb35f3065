package byplay_test

import (
	"context"
	"testing"

	"github.com/domonda/go-sqldb/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metametadata/byplay"
)

func TestScheduleToUsesDefaultQueueForEmptyTag(t *testing.T) {
	ctx := context.Background()
	setupDB(ctx, t)
	defer byplay.Unregister()

	byplay.Register("good", func(ctx context.Context, jc *byplay.JobContext, args []any) error { return nil })

	require.NoError(t, byplay.ScheduleTo(ctx, "", "good"))

	jobs, err := byplay.ListPending(ctx, byplay.DefaultQueue)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, byplay.DefaultQueue, jobs[0].Queue)
}

func TestScheduleLooksUpRegisteredQueue(t *testing.T) {
	ctx := context.Background()
	setupDB(ctx, t)
	defer byplay.Unregister()

	byplay.QueueFor("priced", "billing")
	require.NoError(t, byplay.Schedule(ctx, "priced"))

	jobs, err := byplay.ListPending(ctx, "billing")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestExecuteOnceInsideCallerTransactionFinalisesItEarly(t *testing.T) {
	ctx := context.Background()
	sqlDB := setupDB(ctx, t)
	defer byplay.Unregister()

	require.NoError(t, db.Exec(ctx, /*sql*/ `CREATE TABLE IF NOT EXISTS schedule_test_aux (v text)`))
	t.Cleanup(func() { _ = db.Exec(ctx, /*sql*/ `DROP TABLE IF EXISTS schedule_test_aux`) })

	byplay.Register("writes-data", func(ctx context.Context, jc *byplay.JobContext, args []any) error {
		_, err := jc.Tx.ExecContext(ctx, `INSERT INTO schedule_test_aux (v) VALUES ($1)`, "expected data")
		return err
	})
	require.NoError(t, byplay.ScheduleTo(ctx, "", "writes-data"))

	// execute_once's contract forbids calling it on a connection that is
	// already inside a transaction: the documented hazard is that its
	// internal commit prematurely finalises that outer transaction. This
	// test deliberately violates the contract to demonstrate exactly
	// that: even though the caller issues BEGIN and later ROLLBACK
	// itself, the job's data and DONE state survive, because
	// ExecuteOnce's own commit already finalised everything.
	conn, err := sqlDB.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(ctx, "BEGIN")
	require.NoError(t, err)

	ack, err := byplay.ExecuteOnce(ctx, conn, nil, byplay.DefaultJobTimeout)
	require.NoError(t, err)
	require.False(t, ack.Empty())
	assert.Equal(t, byplay.StateDone, ack.Job.State)

	// The caller's own ROLLBACK, issued on what it believes is still its
	// open transaction, is now a no-op: ExecuteOnce's commit already
	// closed it.
	_, _ = conn.ExecContext(ctx, "ROLLBACK")

	var count int
	require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM schedule_test_aux`).Scan(&count))
	assert.Equal(t, 1, count)

	job, err := byplay.GetJob(ctx, ack.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, byplay.StateDone, job.State)
}
