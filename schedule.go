package byplay

import (
	"context"

	"github.com/domonda/go-errs"
	"github.com/domonda/go-sqldb/db"
)

// queueOfJob is host-provided metadata used by Schedule to look up the
// queue a job identifier should be scheduled to, keyed the same way the
// registry is. Populate it with QueueFor before calling Schedule; jobs with
// no entry go to the default queue.
var queueOfJob = map[string]string{}

// QueueFor associates jobIdentifier with a queue tag for Schedule's benefit.
// ScheduleTo always ignores this map; it is only consulted by Schedule.
func QueueFor(jobIdentifier, queue string) {
	queueOfJob[jobIdentifier] = queue
}

// ScheduleTo inserts one NEW row for jobIdentifier into queue, with args
// serialized as the job's argument list. An empty queue means the default
// queue. ScheduleTo issues a single INSERT on the connection bound to ctx
// and opens no transaction of its own: if ctx is already inside a caller
// transaction, the insert participates in it and is rolled back along with
// it — this is a documented feature, used to couple scheduling a job to the
// commit of unrelated business data.
func ScheduleTo(ctx context.Context, queue, jobIdentifier string, args ...any) (err error) {
	defer errs.WrapWithFuncParams(&err, ctx, queue, jobIdentifier, args)

	encodedQueue, err := encodeOrDefault(queue)
	if err != nil {
		return err
	}

	argsJSON, err := encodeArgs(args)
	if err != nil {
		return err
	}

	return db.Exec(ctx,
		/*sql*/ `
			INSERT INTO byplay (job, args, state, queue)
			VALUES ($1, $2, $3, $4)
		`,
		jobIdentifier, // $1
		argsJSON,      // $2
		StateNew,      // $3
		encodedQueue,  // $4
	)
}

// Schedule is a convenience over ScheduleTo that looks up jobIdentifier's
// queue via QueueFor. Jobs with no registered queue go to the default queue.
func Schedule(ctx context.Context, jobIdentifier string, args ...any) (err error) {
	defer errs.WrapWithFuncParams(&err, ctx, jobIdentifier, args)

	return ScheduleTo(ctx, queueOfJob[jobIdentifier], jobIdentifier, args...)
}
