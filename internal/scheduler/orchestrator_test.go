package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/diamond/internal/batch"
	"github.com/fortuna/diamond/internal/config"
)

type fakeQueue struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (q *fakeQueue) EnqueueAll(_ context.Context, names []string) ([]*batch.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, names)
	var jobs []*batch.Job
	for _, n := range names {
		jobs = append(jobs, &batch.Job{JobName: n})
	}
	return jobs, q.err
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewOrchestratorRejectsBadSpec(t *testing.T) {
	_, err := NewOrchestrator(&fakeQueue{}, &Config{Spec: "every day"}, quiet())
	assert.Error(t, err)
}

func TestTriggerRefreshQueuesConfiguredJobs(t *testing.T) {
	q := &fakeQueue{err: errors.New("odds: missing key")}
	o, err := NewOrchestrator(q, &Config{Spec: "0 6 * * *", Jobs: []string{"roster", "odds"}}, quiet())
	require.NoError(t, err)

	jobs := o.TriggerRefresh(context.Background())
	assert.Len(t, jobs, 2)
	assert.Equal(t, [][]string{{"roster", "odds"}}, q.calls)

	status := o.GetStatus()
	assert.Equal(t, "0 6 * * *", status["schedule"])
	assert.Equal(t, "odds: missing key", status["last_error"])
	assert.Contains(t, status, "last_run")
}

func TestStartRunsOnStartAndStops(t *testing.T) {
	q := &fakeQueue{}
	o, err := NewOrchestrator(q, &Config{Spec: "@every 1h", Jobs: []string{"news"}, RunOnStart: true}, quiet())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return q.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, o.Next().After(time.Now()))

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, config.DefaultJobs, cfg.Jobs)
}
