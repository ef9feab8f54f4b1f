// Package storetest opens migrated SQLite databases for tests.
package storetest

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/diamond/internal/store"
)

// New returns a migrated SQLite database in t's temp dir, closed on cleanup.
func New(t testing.TB) *store.Database {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := store.NewDatabase("sqlite", filepath.Join(t.TempDir(), "diamond.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(context.Background()))
	return db
}
