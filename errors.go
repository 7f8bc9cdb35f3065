package byplay

import "github.com/domonda/go-errs"

// Precondition violations. These are never recovered by the engine:
// they surface immediately to the caller or to the polling thread.
const (
	// ErrWorkerRestarted is the panic value of Start when called on a
	// worker that has already terminated. Restarting is not permitted.
	ErrWorkerRestarted errs.Sentinel = "byplay: worker already started, restart is not permitted"

	// ErrJobNotRegistered is returned by ExecuteOnce when it resolves a
	// job row's Job string against the registry and finds nothing. It
	// indicates code/data drift. ExecuteOnce rolls back its transaction,
	// so the row stays NEW; see Register and lookup.
	ErrJobNotRegistered errs.Sentinel = "byplay: job identifier not registered"

	// ErrAlreadyInTransaction is returned by ExecuteOnce when the passed
	// connection is already inside a transaction and nested-transaction
	// detection has been enabled. Detection is opt-in: see
	// DetectNestedTransactions.
	ErrAlreadyInTransaction errs.Sentinel = "byplay: connection already inside a transaction"
)
