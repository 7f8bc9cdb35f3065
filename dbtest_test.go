package byplay_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DAtek/env"
	"github.com/domonda/go-sqldb"
	"github.com/domonda/go-sqldb/db"
	"github.com/domonda/go-sqldb/pqconn"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"

	"github.com/metametadata/byplay"
)

// DBEnvConfig describes the integration test database, loaded once per
// process via env.NewLoader.
type DBEnvConfig struct {
	PostgresPort     uint16
	PostgresHost     string
	PostgresUser     string
	PostgresPassword string
	PostgresDb       string
}

var loadEnv = env.NewLoader[DBEnvConfig]()

func dbConfigFromEnv(t *testing.T) *sqldb.Config {
	t.Helper()
	config, err := loadEnv()
	require.NoError(t, err)

	return &sqldb.Config{
		Driver:   "postgres",
		User:     config.PostgresUser,
		Password: config.PostgresPassword,
		Host:     config.PostgresHost,
		Port:     config.PostgresPort,
		Database: config.PostgresDb,
		Extra:    map[string]string{"sslmode": "disable"},
	}
}

// setupDB binds the go-sqldb connection used by Install/Schedule (via
// ctx-threaded db.Exec etc.) and returns a plain *sql.DB opened through
// lib/pq for ExecuteOnce and the worker package, which need a real
// *sql.Conn rather than an opaque go-sqldb Connection.
func setupDB(ctx context.Context, t *testing.T) *sql.DB {
	t.Helper()

	config, err := loadEnv()
	require.NoError(t, err)

	conn := pqconn.MustNew(ctx, dbConfigFromEnv(t))
	db.SetConn(conn)

	require.NoError(t, byplay.Install(ctx))
	t.Cleanup(func() { _ = byplay.Uninstall(ctx) })

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		config.PostgresHost, config.PostgresPort, config.PostgresUser, config.PostgresPassword, config.PostgresDb,
	)
	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return sqlDB
}

// Waiter polls Check until it returns true or Timeout elapses, used to wait
// for an async worker cycle to catch up.
type Waiter struct {
	Check         func() bool
	Timeout       time.Duration
	PollFrequency time.Duration
}

func (w *Waiter) Wait() error {
	start := time.Now()
	for {
		if time.Since(start) > w.Timeout {
			return errors.New("TIMEOUT")
		}
		if w.Check() {
			return nil
		}
		time.Sleep(w.PollFrequency)
	}
}
