package main

import (
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/groupdo/internal/storage/sqlstore"
)

func TestRun_StartupFailures(t *testing.T) {
	t.Run("bad configuration", func(t *testing.T) {
		err := run([]string{"-dev", "-db-driver", "mysql"})
		if err == nil || !strings.Contains(err.Error(), "configuration") {
			t.Errorf("expected configuration error, got %v", err)
		}
	})

	t.Run("listen failure after storage opens", func(t *testing.T) {
		busy, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		defer busy.Close()

		dbPath := filepath.Join(t.TempDir(), "run.db")
		err = run([]string{"-dev", "-log-level", "error", "-database-url", dbPath, "-addr", busy.Addr().String()})
		if err == nil || !strings.Contains(err.Error(), "server failed") {
			t.Fatalf("expected server failure, got %v", err)
		}

		// The store was released, so the database opens again cleanly.
		store, err := sqlstore.NewSQLite(dbPath)
		if err != nil {
			t.Fatalf("reopening database failed: %v", err)
		}
		store.Close()
	})
}
