package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/diamond/internal/batch"
	"github.com/fortuna/diamond/internal/config"
)

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestConnectRetriesUntilSuccess(t *testing.T) {
	calls := 0
	got, err := Connect(context.Background(), "thing", 5, quiet(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("refused")
		}
		return "conn", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "conn", got)
	assert.Equal(t, 3, calls)
}

func TestConnectGivesUp(t *testing.T) {
	calls := 0
	_, err := Connect(context.Background(), "thing", 1, quiet(), func() (int, error) {
		calls++
		return 0, errors.New("refused")
	})
	assert.EqualError(t, err, "refused")
	assert.Equal(t, 2, calls)
}

func TestOpenDatabaseRequiresURL(t *testing.T) {
	_, err := OpenDatabase(context.Background(), &config.Config{DatabaseDriver: "sqlite"}, quiet())
	assert.ErrorIs(t, err, config.ErrMissingDatabaseURL)
}

func TestOpenDatabaseMigratesSQLite(t *testing.T) {
	cfg := &config.Config{DatabaseDriver: "sqlite", DatabaseURL: t.TempDir() + "/diamond.db"}
	db, err := OpenDatabase(context.Background(), cfg, quiet())
	require.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestOpenRedisDisabled(t *testing.T) {
	rc, err := OpenRedis(context.Background(), &config.Config{}, quiet())
	require.NoError(t, err)
	assert.Nil(t, rc)
}

func TestNewSourcesRegistersEveryJob(t *testing.T) {
	src := NewSources(&config.Config{Season: 2025}, nil, quiet())

	names := batch.DefaultRegistry(src).Names()
	for _, job := range config.DefaultJobs {
		assert.Contains(t, names, job)
	}
	assert.Len(t, names, 18)
}
