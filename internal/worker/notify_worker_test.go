package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"rentease/internal/database"
	"rentease/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWebhook struct {
	mu     sync.Mutex
	sent   []string
	failN  int
	called int
}

func (f *fakeWebhook) SendBookingEvent(_ context.Context, eventType string, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called++
	if f.called <= f.failN {
		return errors.New("webhook unavailable")
	}
	f.sent = append(f.sent, eventType+":"+booking.ID)
	return nil
}

func setupWorkerDB(t *testing.T) *database.DB {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testBooking(id string) *models.Booking {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &models.Booking{
		ID:         id,
		PropertyID: 1,
		TenantID:   201,
		StartDate:  start,
		EndDate:    models.DefaultEndDate(start),
		Status:     models.StatusPending,
	}
}

func TestEnqueueBookingEventPersists(t *testing.T) {
	db := setupWorkerDB(t)
	logger := zerolog.New(os.Stdout)
	w := NewNotifyWorker(db, &fakeWebhook{}, nil, RetryPolicy{}, &logger)

	ctx := context.Background()
	require.NoError(t, w.EnqueueBookingEvent(ctx, "booking_requested", testBooking("b-1")))

	tasks, err := db.GetPendingNotifyTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "booking_requested", tasks[0].TaskType)
	assert.Equal(t, "b-1", tasks[0].BookingID)

	var payload notifyPayload
	require.NoError(t, json.Unmarshal([]byte(tasks[0].Payload), &payload))
	assert.Equal(t, "b-1", payload.Booking.ID)
}

func TestEnqueueValidation(t *testing.T) {
	db := setupWorkerDB(t)
	logger := zerolog.New(os.Stdout)
	w := NewNotifyWorker(db, &fakeWebhook{}, nil, RetryPolicy{}, &logger)

	ctx := context.Background()
	assert.Error(t, w.EnqueueBookingEvent(ctx, "", testBooking("b-1")))
	assert.Error(t, w.EnqueueBookingEvent(ctx, "booking_requested", nil))
	assert.Error(t, w.EnqueueBookingEvent(ctx, "booking_requested", &models.Booking{}))
}

func TestEnqueuePushesToRedis(t *testing.T) {
	db := setupWorkerDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger := zerolog.New(os.Stdout)
	w := NewNotifyWorker(db, &fakeWebhook{}, client, RetryPolicy{}, &logger)

	require.NoError(t, w.EnqueueBookingEvent(context.Background(), "booking_approved", testBooking("b-2")))

	items, err := mr.List("notify:queue")
	require.NoError(t, err)
	require.Len(t, items, 1)

	var task models.NotifyTask
	require.NoError(t, json.Unmarshal([]byte(items[0]), &task))
	assert.Equal(t, "b-2", task.BookingID)
}

func TestProcessTaskSuccess(t *testing.T) {
	db := setupWorkerDB(t)
	hook := &fakeWebhook{}
	logger := zerolog.New(os.Stdout)
	w := NewNotifyWorker(db, hook, nil, RetryPolicy{}, &logger)

	ctx := context.Background()
	require.NoError(t, w.EnqueueBookingEvent(ctx, "booking_requested", testBooking("b-3")))

	tasks, err := db.GetPendingNotifyTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	w.processTask(ctx, &tasks[0])

	assert.Equal(t, []string{"booking_requested:b-3"}, hook.sent)

	// Nothing left to poll.
	tasks, err = db.GetPendingNotifyTasks(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, tasks, 0)
}

func TestProcessTaskSchedulesRetry(t *testing.T) {
	db := setupWorkerDB(t)
	hook := &fakeWebhook{failN: 1}
	logger := zerolog.New(os.Stdout)
	w := NewNotifyWorker(db, hook, nil, RetryPolicy{MaxRetries: 3}, &logger)

	ctx := context.Background()
	require.NoError(t, w.EnqueueBookingEvent(ctx, "booking_requested", testBooking("b-4")))

	tasks, err := db.GetPendingNotifyTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	// First delivery fails; the task moves to retry with a future schedule.
	w.processTask(ctx, &tasks[0])
	tasks, err = db.GetPendingNotifyTasks(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, tasks, 0, "retry is scheduled in the future")
}

func TestProcessTaskExhaustsRetries(t *testing.T) {
	db := setupWorkerDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hook := &fakeWebhook{failN: 100}
	logger := zerolog.New(os.Stdout)
	w := NewNotifyWorker(db, hook, client, RetryPolicy{MaxRetries: 1}, &logger)

	ctx := context.Background()
	booking := testBooking("b-5")
	payloadBytes, err := json.Marshal(notifyPayload{EventType: "booking_rejected", Booking: booking})
	require.NoError(t, err)

	task := models.NotifyTask{
		TaskType:  "booking_rejected",
		BookingID: booking.ID,
		Payload:   string(payloadBytes),
		Status:    "pending",
	}
	require.NoError(t, db.CreateNotifyTask(ctx, &task))

	w.processTask(ctx, &task)

	// Failed permanently and parked in the dead-letter list.
	pending, err := db.GetPendingNotifyTasks(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 0)

	dead, err := mr.List("notify:deadletter")
	require.NoError(t, err)
	assert.Len(t, dead, 1)
}
