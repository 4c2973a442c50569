package service

import (
	"context"
	"testing"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWizardSessions_ApplyAndAutosave(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	progress := newAutoSaveService(kv, 10*time.Millisecond, time.Hour)
	analytics := NewAnalyticsService(0, zap.NewNop())
	sessions := NewWizardSessions(progress, analytics, zap.NewNop())
	defer sessions.Shutdown()

	id := sessions.Start(&dto.DeviceInfo{UserAgent: "ua"})
	state, err := sessions.Apply(ctx, id, []dto.FieldUpdate{
		set("firstName", "Juan"),
		set("password", "supersecret"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Juan", state.Form.FirstName)

	assert.Eventually(t, func() bool {
		p, _ := progress.LoadOnboardingProgress(ctx, id)
		return p != nil && p.FormData["firstName"] == "Juan"
	}, time.Second, 5*time.Millisecond)

	p, err := progress.LoadOnboardingProgress(ctx, id)
	require.NoError(t, err)
	_, hasPassword := p.FormData["password"]
	assert.False(t, hasPassword)
	assert.NotEmpty(t, p.Metadata.DeviceFingerprint)

	names := []string{}
	for _, ev := range analytics.Events(id) {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{EventSessionStarted, EventFieldUpdated, EventFieldUpdated}, names)
}

func TestWizardSessions_InvalidUpdateKeepsState(t *testing.T) {
	progress := newAutoSaveService(store.NewMemoryStore(), time.Hour, time.Hour)
	sessions := NewWizardSessions(progress, NewAnalyticsService(0, zap.NewNop()), zap.NewNop())
	defer sessions.Shutdown()

	id := sessions.Start(nil)
	state, err := sessions.Apply(context.Background(), id, []dto.FieldUpdate{set("email", "not-an-email")}, nil)
	require.Error(t, err)
	assert.Empty(t, state.Form.Email)
}

func TestWizardSessions_ResumeFromStore(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	progress := newAutoSaveService(kv, time.Hour, time.Hour)

	first := NewWizardSessions(progress, nil, zap.NewNop())
	id := first.Start(nil)
	_, err := first.Apply(ctx, id, []dto.FieldUpdate{set("lastName", "Reyes")}, nil)
	require.NoError(t, err)
	first.Shutdown()

	second := NewWizardSessions(progress, nil, zap.NewNop())
	defer second.Shutdown()
	state, err := second.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Reyes", state.Form.LastName)

	_, err = second.State(ctx, "unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func newClockedSessions(t *testing.T) (*WizardSessions, *ProgressService, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	kv := store.NewMemoryStore()
	kv.SetClock(clock.now)
	progress := newAutoSaveService(kv, time.Hour, time.Hour)
	progress.now = clock.now
	sessions := NewWizardSessions(progress, NewAnalyticsService(0, zap.NewNop()), zap.NewNop())
	t.Cleanup(sessions.Shutdown)
	return sessions, progress, clock
}

func autosaverStopped(ws *wizardSession) bool {
	select {
	case <-ws.saver.done:
		return true
	default:
		return false
	}
}

func TestWizardSessions_ExpireAfterRetention(t *testing.T) {
	ctx := context.Background()
	sessions, progress, clock := newClockedSessions(t)

	id := sessions.Start(nil)
	_, err := sessions.Apply(ctx, id, []dto.FieldUpdate{set("firstName", "Juan")}, nil)
	require.NoError(t, err)
	out, err := sessions.Flush(ctx, id)
	require.NoError(t, err)
	require.True(t, out.Saved)

	sessions.mu.Lock()
	ws := sessions.sessions[id]
	sessions.mu.Unlock()

	clock.t = clock.t.Add(8 * 24 * time.Hour)

	_, err = sessions.Flush(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, autosaverStopped(ws))

	_, err = sessions.State(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	p, err := progress.LoadOnboardingProgress(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Zero(t, sessions.Len())
}

func TestWizardSessions_EvictIdleFlushesAndResumes(t *testing.T) {
	ctx := context.Background()
	sessions, _, clock := newClockedSessions(t)

	id := sessions.Start(nil)
	_, err := sessions.Apply(ctx, id, []dto.FieldUpdate{set("lastName", "Reyes")}, nil)
	require.NoError(t, err)
	idle := sessions.Start(nil)

	sessions.mu.Lock()
	busy, quiet := sessions.sessions[id], sessions.sessions[idle]
	sessions.mu.Unlock()

	clock.t = clock.t.Add(20 * time.Minute)
	assert.Zero(t, sessions.EvictIdle(30*time.Minute))
	assert.Equal(t, 2, sessions.Len())

	clock.t = clock.t.Add(20 * time.Minute)
	assert.Equal(t, 2, sessions.EvictIdle(30*time.Minute))
	assert.Zero(t, sessions.Len())
	assert.True(t, autosaverStopped(busy))
	assert.True(t, autosaverStopped(quiet))

	_, err = sessions.Flush(ctx, id)
	require.NoError(t, err)

	state, err := sessions.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Reyes", state.Form.LastName)
	assert.Equal(t, 1, sessions.Len())
}

func TestWizardSessions_StartEvictionReleasesSessions(t *testing.T) {
	sessions, _, clock := newClockedSessions(t)
	for i := 0; i < 5; i++ {
		sessions.Start(nil)
	}
	require.Equal(t, 5, sessions.Len())

	clock.t = clock.t.Add(2 * time.Minute)
	sessions.StartEviction(time.Minute, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, time.Second, 5*time.Millisecond)
}
