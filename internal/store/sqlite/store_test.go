package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/emberwell/wellness-backend/internal/store"
	"github.com/emberwell/wellness-backend/internal/store/storetest"
)

func makeSqliteStore(t *testing.T) store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wellness.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	return s
}

func TestSqliteStore_Compliance(t *testing.T) {
	storetest.Run(t, makeSqliteStore)
}
