package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/adme-site/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Tables in the order they can be truncated.
var tables = []string{"projects", "contact_inquiries", "services", "profiles"}

// TestDB is a migrated Postgres shared by every test in a package.
type TestDB struct {
	DB        *database.DB
	Container testcontainers.Container
}

var (
	shared    *TestDB
	sharedErr error
	startOnce sync.Once
)

func startPostgres(ctx context.Context) (*TestDB, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "adme",
				"POSTGRES_PASSWORD": "adme",
				"POSTGRES_DB":       "adme_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	dsn, err := container.PortEndpoint(ctx, "5432/tcp", "postgres")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("resolve postgres endpoint: %w", err)
	}
	dsn = strings.Replace(dsn, "postgres://", "postgres://adme:adme@", 1) + "/adme_test?sslmode=disable"

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("connect: %w", err)
	}

	db := &database.DB{Pool: pool}
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &TestDB{DB: db, Container: container}, nil
}

// SetupTestDB returns the package's database with every table emptied. The
// container starts on first use; call TeardownTestDB from TestMain.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	startOnce.Do(func() {
		shared, sharedErr = startPostgres(context.Background())
	})
	if sharedErr != nil {
		t.Fatalf("test database unavailable: %v", sharedErr)
	}

	shared.CleanTables(t)
	return shared
}

// TeardownTestDB stops the shared container, if one was started.
func TeardownTestDB() {
	if shared == nil {
		return
	}
	shared.DB.Close()
	_ = shared.Container.Terminate(context.Background())
	shared = nil
}

// CleanTables truncates every table.
func (tdb *TestDB) CleanTables(t *testing.T) {
	t.Helper()

	_, err := tdb.DB.Pool.Exec(context.Background(),
		"TRUNCATE TABLE "+strings.Join(tables, ", ")+" CASCADE")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
