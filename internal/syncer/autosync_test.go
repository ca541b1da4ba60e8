package syncer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/schedule"
	"github.com/teemow/planner/internal/store"
)

func TestNewAutoSync(t *testing.T) {
	c := New(&fakeBackend{}, store.New(), nil, nil)
	noUser := func() (schedule.User, bool) { return schedule.User{}, false }

	a, err := NewAutoSync(c, noUser, "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultAutoSyncSpec, a.Spec())
	assert.True(t, a.Next().IsZero(), "not started yet")

	_, err = NewAutoSync(c, noUser, "every now and then", 0, nil)
	assert.Error(t, err)

	a, err = NewAutoSync(c, noUser, "*/5 * * * *", 0, nil)
	require.NoError(t, err)
	a.Start()
	a.Start()
	assert.False(t, a.Next().IsZero())
	require.NoError(t, a.Stop(context.Background()))
	require.NoError(t, a.Stop(context.Background()))
}

func TestAutoSync_Run(t *testing.T) {
	backend := &fakeBackend{pullResp: resp(200, `{"success":true}`)}
	c := New(backend, store.New(), nil, nil)

	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(logging.New(&buf, true))

	active := false
	a, err := NewAutoSync(c, func() (schedule.User, bool) { return user, active }, "@every 1h", time.Second, logger)
	require.NoError(t, err)

	a.run()
	assert.Zero(t, backend.pulls)
	assert.Contains(t, buf.String(), "no active session")

	active = true
	a.run()
	assert.Equal(t, 1, backend.pulls)
	assert.Contains(t, buf.String(), "outcome=success")
}
