package byplay

// The reservation/executor core (reserve.go, exec.go) talks to PostgreSQL
// directly through database/sql rather than through the go-sqldb
// abstraction: it needs a real *sql.Conn to hand callables as their raw
// driver connection (see JobContext), and go-sqldb's Connection interface
// cannot expose one without reaching into unexported internals. lib/pq is
// the standard database/sql driver for that purpose.
import (
	_ "github.com/lib/pq"
)
