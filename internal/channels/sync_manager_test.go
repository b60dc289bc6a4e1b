package channels

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard-api/internal/events"
	"retail-dashboard-api/internal/models"
)

type fakeRecorder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRecorder) RecordSync(_ context.Context, channelID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, channelID)
	return f.err
}

func (f *fakeRecorder) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestManager(t *testing.T, recorder Recorder, duration time.Duration) (*Manager, *events.EventQueue) {
	t.Helper()
	queue := events.NewEventQueue(events.EventQueueConfig{MaxEvents: 100})
	m := NewManager(recorder, queue, Config{Duration: duration, Steps: 5, JobTTL: time.Minute})
	t.Cleanup(m.Stop)
	return m, queue
}

func eventTypes(queue *events.EventQueue) []string {
	list, _, _ := queue.GetEvents(0, 100)
	types := make([]string, 0, len(list))
	for _, e := range list {
		types = append(types, e.EventType)
	}
	return types
}

func TestManager_CompletesAndRecords(t *testing.T) {
	// Arrange
	recorder := &fakeRecorder{}
	m, queue := newTestManager(t, recorder, 25*time.Millisecond)

	// Act
	job, err := m.Start(context.Background(), SyncRequest{ChannelID: "CH-TB"})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, JobRunning, job.State)
	assert.Equal(t, Options{Products: true, Orders: true, Inventory: true}, job.Options, "empty options select everything")

	require.Eventually(t, func() bool {
		types := eventTypes(queue)
		return len(types) == 2 && types[1] == models.EventTypeChannelSyncCompleted
	}, time.Second, 5*time.Millisecond, "completion is published last")

	got, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobSucceeded, got.State)
	assert.Equal(t, 100, got.Progress)
	assert.NotNil(t, got.FinishedAt)
	assert.Equal(t, []string{"CH-TB"}, recorder.Calls())

	status := m.GetSyncStatus()
	assert.Equal(t, 0, status.Running)
	assert.Equal(t, 1, status.Completed)
	assert.True(t, status.LastSyncSuccess)
}

func TestManager_OneJobPerChannel(t *testing.T) {
	m, _ := newTestManager(t, &fakeRecorder{}, time.Minute)

	first, err := m.Start(context.Background(), SyncRequest{ChannelID: "CH-JD"})
	require.NoError(t, err)

	again, err := m.Start(context.Background(), SyncRequest{ChannelID: "CH-JD"})
	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.Equal(t, first.ID, again.ID, "the running job is reported back")

	_, err = m.Start(context.Background(), SyncRequest{ChannelID: "CH-TB"})
	assert.NoError(t, err, "other channels are independent")
}

func TestManager_CancelNeverWrites(t *testing.T) {
	// Arrange
	recorder := &fakeRecorder{}
	m, queue := newTestManager(t, recorder, 200*time.Millisecond)
	job, err := m.Start(context.Background(), SyncRequest{ChannelID: "CH-XHS", Options: Options{Orders: true}})
	require.NoError(t, err)

	// Act
	cancelled, err := m.Cancel(job.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, JobCancelled, cancelled.State)
	assert.Equal(t, Options{Orders: true}, cancelled.Options)

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, recorder.Calls())
	assert.Equal(t, []string{models.EventTypeChannelSyncStarted, models.EventTypeChannelSyncCancelled}, eventTypes(queue))

	_, err = m.Start(context.Background(), SyncRequest{ChannelID: "CH-XHS"})
	assert.NoError(t, err, "a cancelled job frees the channel")
}

func TestManager_CancelFinishedIsNoop(t *testing.T) {
	m, _ := newTestManager(t, &fakeRecorder{}, 10*time.Millisecond)
	job, err := m.Start(context.Background(), SyncRequest{ChannelID: "CH-DY"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got, _ := m.Get(job.ID)
		return got.State == JobSucceeded
	}, time.Second, 5*time.Millisecond)

	got, err := m.Cancel(job.ID)

	require.NoError(t, err)
	assert.Equal(t, JobSucceeded, got.State)
}

func TestManager_RecorderFailure(t *testing.T) {
	m, queue := newTestManager(t, &fakeRecorder{err: errors.New("disk full")}, 10*time.Millisecond)

	job, err := m.Start(context.Background(), SyncRequest{ChannelID: "CH-WX"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, _ := m.Get(job.ID)
		return got.State == JobFailed
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return m.GetSyncStatus().Failed == 1 }, time.Second, 5*time.Millisecond)
	got, _ := m.Get(job.ID)
	assert.Equal(t, "disk full", got.Error)
	assert.Equal(t, []string{models.EventTypeChannelSyncStarted}, eventTypes(queue))
}

func TestManager_UnknownJob(t *testing.T) {
	m, _ := newTestManager(t, &fakeRecorder{}, time.Second)

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = m.Cancel("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestManager_StopCancelsRunning(t *testing.T) {
	recorder := &fakeRecorder{}
	queue := events.NewEventQueue(events.EventQueueConfig{MaxEvents: 100})
	m := NewManager(recorder, queue, Config{Duration: time.Minute, Steps: 5})

	_, err := m.Start(context.Background(), SyncRequest{ChannelID: "CH-OFF"})
	require.NoError(t, err)

	m.Stop()

	assert.Empty(t, recorder.Calls())
	_, err = m.Start(context.Background(), SyncRequest{ChannelID: "CH-OFF"})
	assert.Error(t, err, "a stopped manager accepts no work")
}
