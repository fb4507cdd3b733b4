package catalogmanager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestManagers(t *testing.T) (context.Context, *Managers, *testClock) {
	t.Helper()
	ctx := log.Logger.WithContext(context.Background())
	store, err := db.OpenInMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return ctx, New(store, Options{Clock: clock.Now}), clock
}
