package byplay

import (
	"time"

	"github.com/domonda/golog"
	rootlog "github.com/domonda/golog/log"
)

// DefaultJobTimeout is the timeout worker.Config uses when its own
// JobTimeout field is left at zero. Passing 0 directly to ExecuteOnce
// disables the timeout.
const DefaultJobTimeout = 15 * time.Minute

var (
	log = rootlog.NewPackageLogger("byplay")

	// OnError is called for every error that would also be logged.
	// Hosts can wire metrics or alerting here without subclassing log.
	OnError = func(error) {}
)

// OverrideLogger replaces the package logger, for hosts that want
// byplay's internal diagnostics routed through their own golog config.
func OverrideLogger(logger *golog.Logger) {
	log = logger
}
