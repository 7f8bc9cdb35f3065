package worker

import (
	"context"
	"time"

	"github.com/metametadata/byplay"
)

// runThread is one polling thread's loop (C7):
//
//	while not interrupted:
//	    open one connection from the pool
//	    ack = execute_once(conn, queues)
//	    close connection
//	    on_ack_wrapper(ack)        # may call OnFail then OnAck; may self-interrupt
//	    sleep(polling interval)   # interruptible
//
// Interruption is only observed at the top of the loop and during the
// sleep; a running execution cycle is never forcibly aborted.
func runThread(ctx context.Context, t *Thread) {
	log, threadCtx := log.With().Int("threadIndex", t.Index).SubLoggerContext(ctx)

	log.Debug("Starting polling thread").Log()
	defer log.Debug("Polling thread ended").Log()

	for {
		select {
		case <-t.Worker.interrupted():
			return
		case <-t.stop:
			return
		default:
		}

		ack, err := executeCycle(threadCtx, t)
		if err != nil {
			byplay.OnError(err)
			log.ErrorCtx(threadCtx, "Error during execution cycle").Err(err).Log()
		} else {
			dispatchAck(t, ack)
		}

		if !sleepInterruptible(t, t.Worker.config.PollingInterval) {
			return
		}
	}
}

func executeCycle(ctx context.Context, t *Thread) (byplay.Ack, error) {
	conn, err := t.Worker.db.Conn(ctx)
	if err != nil {
		return byplay.Ack{}, err
	}
	defer conn.Close()

	return byplay.ExecuteOnce(ctx, conn, t.Worker.config.Queues, t.Worker.config.JobTimeout)
}

// dispatchAck runs the per-cycle callbacks. On a failed job, OnFail runs
// first, then OnAck, matching the engine's callback ordering contract.
func dispatchAck(t *Thread, ack byplay.Ack) {
	if ack.Failed() {
		t.Worker.config.OnFail(t, ack.Err, ack.Job)
	}
	t.Worker.config.OnAck(t, ack)
}

// sleepInterruptible blocks for d, or until the thread or the worker is
// interrupted, whichever comes first. It reports whether the sleep ran to
// completion (false means the caller should stop polling).
func sleepInterruptible(t *Thread, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-t.Worker.interrupted():
		return false
	case <-t.stop:
		return false
	}
}
