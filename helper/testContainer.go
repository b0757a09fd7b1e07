package helper

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDatabaseName     = "database"
	testDatabaseUser     = "user"
	testDatabasePassword = "password"
)

// MustStartPostgresContainer starts a pgvector enabled Postgres container and
// returns its teardown function and mapped port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase(testDatabaseName),
		postgres.WithUsername(testDatabaseUser),
		postgres.WithPassword(testDatabasePassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", NewError("start postgres container", err)
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return container.Terminate, "", NewError("map postgres port", err)
	}

	return container.Terminate, port.Port(), nil
}

// SetTestDatabaseConfigEnvs points THREADRAG_DB_* at a test container.
func SetTestDatabaseConfigEnvs(t *testing.T, dbPort string) {
	t.Setenv("THREADRAG_DB_HOST", "localhost")
	t.Setenv("THREADRAG_DB_PORT", dbPort)
	t.Setenv("THREADRAG_DB_DATABASE", testDatabaseName)
	t.Setenv("THREADRAG_DB_USERNAME", testDatabaseUser)
	t.Setenv("THREADRAG_DB_PASSWORD", testDatabasePassword)
	t.Setenv("THREADRAG_DB_SCHEMA", "public")
	t.Setenv("THREADRAG_DB_SSLMODE", "disable")
}

// NewTestDatabase connects to the test container and closes it on cleanup.
func NewTestDatabase(t *testing.T, config *DatabaseConfiguration) *Database {
	logger := NewLogger(os.Stdout, slog.LevelWarn)
	db, err := NewDatabase("threadrag_test", config, logger)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
