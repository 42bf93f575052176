package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/database"
	"github.com/workforce-hub/attendance-backend-go/migrations"
)

// TestDatabaseSetup holds a migrated connection to the test database.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the schema. The
// test is skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.migrate(ctx))
	require.NoError(t, setup.TruncateAllTables(ctx))

	t.Cleanup(func() {
		_ = setup.TruncateAllTables(context.Background())
		setup.Close()
	})

	return setup
}

func (t *TestDatabaseSetup) migrate(ctx context.Context) error {
	all, err := migrations.All()
	if err != nil {
		return err
	}
	for _, m := range all {
		if _, err := t.DB.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply %s: %w", m.Name, err)
		}
	}
	return nil
}

// TruncateAllTables removes every row from the schema's tables
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"attendance",
		"employees",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// InsertEmployee adds an employee row for tests.
func (t *TestDatabaseSetup) InsertEmployee(tb testing.TB, id, name, status string) {
	tb.Helper()
	_, err := t.DB.Exec(context.Background(), `
		INSERT INTO employees (id, full_name, department, position, status, wage, overtime_rate)
		VALUES ($1, $2, 'Operations', 'Associate', $3, 100.00, 1.25)
	`, id, name, status)
	require.NoError(tb, err)
}

// Close closes the database pool
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
