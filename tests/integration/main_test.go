//go:build integration

package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/clinicadm/clinic-api/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	if err := testutil.Migrate("file://../../migrations", pgContainer.ConnectionString); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	testDB, err = pgxpool.New(ctx, pgContainer.ConnectionString)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer testDB.Close()

	os.Exit(m.Run())
}

// resetDB empties every table so tests start from a clean slate.
func resetDB(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), "TRUNCATE patients, doctors, users CASCADE")
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
}
