package byplay

import (
	"context"

	"github.com/domonda/go-errs"
	"github.com/domonda/go-sqldb/db"
)

// migrations applies in order. Each is recorded by name in byplay_migrations
// so Install/Uninstall are idempotent: re-running either is a no-op once
// every migration named here is (or is not) present.
var migrations = []struct {
	name string
	up   string
	down string
}{
	{
		name: "001_create_byplay",
		up: /*sql*/ `
			CREATE TABLE byplay (
				id    bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				job   text NOT NULL,
				args  text NOT NULL,
				state smallint NOT NULL CHECK (state IN (0, 1, 2)),
				queue text NOT NULL
			)
		`,
		down: /*sql*/ `DROP TABLE byplay`,
	},
	{
		name: "002_create_byplay_reservation_index",
		up:   /*sql*/ `CREATE INDEX byplay_state_queue_id_idx ON byplay (state, queue, id)`,
		down: /*sql*/ `DROP INDEX byplay_state_queue_id_idx`,
	},
}

// Install creates the byplay table and its supporting index if they are
// not already present, tracking applied migrations in byplay_migrations.
// Install is idempotent: calling it on an already-installed schema applies
// nothing and returns nil.
//
// Install runs against the connection bound to ctx via db.SetConn /
// db.ContextWithConn; it does not open or manage a pool itself, per the
// connection pool being a named, out-of-scope collaborator.
func Install(ctx context.Context) (err error) {
	defer errs.WrapWithFuncParams(&err, ctx)

	err = db.Exec(ctx, /*sql*/ `
		CREATE TABLE IF NOT EXISTS byplay_migrations (
			name       text PRIMARY KEY,
			applied_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return errs.Errorf("create byplay_migrations: %w", err)
	}

	for _, m := range migrations {
		err = db.Transaction(ctx, func(ctx context.Context) error {
			applied, err := db.QueryValue[int](ctx,
				/*sql*/ `SELECT count(*) FROM byplay_migrations WHERE name = $1`,
				m.name,
			)
			if err != nil {
				return err
			}
			if applied > 0 {
				return nil
			}

			log.Debug("Applying byplay migration").Str("name", m.name).Log()

			if err := db.Exec(ctx, m.up); err != nil {
				return errs.Errorf("migration %s: %w", m.name, err)
			}
			return db.Exec(ctx,
				/*sql*/ `INSERT INTO byplay_migrations (name) VALUES ($1)`,
				m.name,
			)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Uninstall rolls back all migrations applied by Install, in reverse order,
// and drops byplay_migrations itself. Uninstall is idempotent: calling it on
// a database with no byplay schema present does nothing and returns nil.
func Uninstall(ctx context.Context) (err error) {
	defer errs.WrapWithFuncParams(&err, ctx)

	exists, err := db.QueryValue[bool](ctx, /*sql*/ `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables WHERE table_name = 'byplay_migrations'
		)
	`)
	if err != nil {
		return errs.Errorf("check byplay_migrations: %w", err)
	}
	if !exists {
		return nil
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		err = db.Transaction(ctx, func(ctx context.Context) error {
			applied, err := db.QueryValue[int](ctx,
				/*sql*/ `SELECT count(*) FROM byplay_migrations WHERE name = $1`,
				m.name,
			)
			if err != nil {
				return err
			}
			if applied == 0 {
				return nil
			}

			log.Debug("Reverting byplay migration").Str("name", m.name).Log()

			if err := db.Exec(ctx, m.down); err != nil {
				return errs.Errorf("revert migration %s: %w", m.name, err)
			}
			return db.Exec(ctx,
				/*sql*/ `DELETE FROM byplay_migrations WHERE name = $1`,
				m.name,
			)
		})
		if err != nil {
			return err
		}
	}

	return db.Exec(ctx, /*sql*/ `DROP TABLE byplay_migrations`)
}
