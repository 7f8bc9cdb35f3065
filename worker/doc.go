/*
Package worker spawns and supervises the polling threads that drain a
byplay queue against a pooled *sql.DB.

# Overview

A Worker owns a fixed set of polling threads. Each thread, independently
and forever until interrupted, opens one connection from the pool, runs one
byplay.ExecuteOnce cycle on it, closes the connection, dispatches the
OnFail/OnAck callbacks, then sleeps for the configured polling interval
before repeating.

# Lifecycle

	w := worker.New(db, worker.Config{ThreadsNum: 4})
	w.Start()
	// ... w.State() is worker.StateRunning ...
	w.Interrupt()
	w.Join()
	// w.State() is now worker.StateTerminated; w cannot be restarted.

# Callbacks

OnFail and OnAck receive a *Thread, not the Worker directly, so a callback
running in one thread can call Thread.Interrupt to stop only that thread —
useful in tests that want to drain a queue once and exit without tearing
down every other thread.
*/
package worker
