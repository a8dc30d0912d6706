// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hearth/internal/models"
	"github.com/tomtom215/hearth/internal/queue"
)

func lowWorker(st *stack) *Worker {
	return NewWorker(st.d, st.queue, WorkerOptions{
		QueueName:    testQueue,
		Priority:     models.PriorityLow,
		PollInterval: 10 * time.Millisecond,
	})
}

func enqueue(t *testing.T, st *stack, job *models.NotificationJob, priority models.Priority) {
	t.Helper()
	job.Priority = priority
	env := models.NewEnvelope(*job, 3)
	if err := st.queue.Enqueue(context.Background(), testQueue, priority, &env); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
}

func queueLen(t *testing.T, st *stack, priority models.Priority) int64 {
	t.Helper()
	n, err := st.queue.Length(context.Background(), testQueue, priority)
	if err != nil {
		t.Fatalf("Length() error = %v", err)
	}
	return n
}

func TestNewWorker_Defaults(t *testing.T) {
	d, _, _, _, _ := newFakeDispatcher()
	w := NewWorker(d, nil, WorkerOptions{QueueName: testQueue})
	if w.Priority() != models.DefaultPriority {
		t.Errorf("priority = %q, want %q", w.Priority(), models.DefaultPriority)
	}
	if w.opts.PollInterval != time.Second {
		t.Errorf("interval = %v, want 1s", w.opts.PollInterval)
	}
	if w.IsProcessing() {
		t.Error("worker reports processing before Serve")
	}
	if w.String() != "notification-worker" {
		t.Errorf("String() = %q", w.String())
	}
}

func TestWorker_ExecutesDueJob(t *testing.T) {
	st := newStack(t)
	w := lowWorker(st)
	enqueue(t, st, testJob("n1"), models.PriorityLow)

	if got := w.Tick(context.Background()); got != TickExecuted {
		t.Fatalf("Tick() = %q, want %q", got, TickExecuted)
	}
	if !st.mr.Exists("notification:n1") {
		t.Error("record not persisted")
	}
	if got := w.Tick(context.Background()); got != TickEmpty {
		t.Errorf("second Tick() = %q, want empty", got)
	}
}

func TestWorker_OneJobPerTick(t *testing.T) {
	st := newStack(t)
	w := lowWorker(st)
	enqueue(t, st, testJob("a"), models.PriorityLow)
	enqueue(t, st, testJob("b"), models.PriorityLow)

	w.Tick(context.Background())
	if got := queueLen(t, st, models.PriorityLow); got != 1 {
		t.Errorf("length after one tick = %d, want 1", got)
	}
	if !st.mr.Exists("notification:a") || st.mr.Exists("notification:b") {
		t.Error("jobs not executed in FIFO order")
	}
}

// A job scheduled in the future goes back on the list without executing.
func TestWorker_ScheduledJobReenqueued(t *testing.T) {
	st := newStack(t)
	w := lowWorker(st)
	job := testJob("later")
	future := time.Now().Add(time.Hour)
	job.ScheduledFor = &future
	enqueue(t, st, job, models.PriorityLow)

	for i := 0; i < 3; i++ {
		if got := w.Tick(context.Background()); got != TickRescheduled {
			t.Fatalf("Tick() #%d = %q, want %q", i, got, TickRescheduled)
		}
		if got := queueLen(t, st, models.PriorityLow); got != 1 {
			t.Fatalf("length = %d, want 1", got)
		}
	}
	if st.mr.Exists("notification:later") {
		t.Error("scheduled job executed early")
	}

	// Once due it executes.
	w.now = func() time.Time { return future.Add(time.Second) }
	if got := w.Tick(context.Background()); got != TickExecuted {
		t.Errorf("Tick() when due = %q, want executed", got)
	}
}

// A job enqueued at high is never seen by a worker polling low.
func TestWorker_PriorityMismatch(t *testing.T) {
	st := newStack(t)
	w := lowWorker(st)
	enqueue(t, st, testJob("urgent"), models.PriorityHigh)

	for i := 0; i < 3; i++ {
		if got := w.Tick(context.Background()); got != TickEmpty {
			t.Fatalf("Tick() = %q, want empty", got)
		}
	}
	if got := queueLen(t, st, models.PriorityHigh); got != 1 {
		t.Errorf("high length = %d, want 1", got)
	}
}

func TestWorker_DuplicateAfterFastPath(t *testing.T) {
	st := newStack(t)
	w := lowWorker(st)
	job := testJob("n1")

	if err := st.d.Execute(context.Background(), job, TriggerPubSub); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	enqueue(t, st, job, models.PriorityLow)

	if got := w.Tick(context.Background()); got != TickDuplicate {
		t.Errorf("Tick() = %q, want duplicate", got)
	}
	if got := queueLen(t, st, models.PriorityLow); got != 0 {
		t.Errorf("duplicate left in queue: length %d", got)
	}
}

// A job executed early on the fast path is not executed again when the
// worker draws it once due, even after a restart cleared the in-process set.
func TestWorker_ScheduledJobNotExecutedTwice(t *testing.T) {
	st := newStack(t)
	job := testJob("far-future")
	due := time.Now().Add(2 * time.Hour)
	job.ScheduledFor = &due

	if err := st.d.Execute(context.Background(), job, TriggerPubSub); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	enqueue(t, st, job, models.PriorityLow)

	// Past the guard ttl measured from submission, but not from the due time.
	st.mr.FastForward(2*time.Hour + time.Second)
	st.guard = NewGuard(st.store.Command, 1000, time.Hour)
	st.d = New(testOptions(), st.queue, st.router, st.records, st.guard)
	w := lowWorker(st)
	w.now = func() time.Time { return due.Add(time.Second) }

	if got := w.Tick(context.Background()); got != TickDuplicate {
		t.Errorf("Tick() when due = %q, want duplicate", got)
	}
	if got := queueLen(t, st, models.PriorityLow); got != 0 {
		t.Errorf("queue length = %d, want 0", got)
	}
}

// failingStack pairs the real queue with a dispatcher whose record store
// and publisher are down, so every execution fails.
func failingStack(t *testing.T) (*stack, *Worker) {
	t.Helper()
	st := newStack(t)
	records := &fakeRecords{err: errors.New("store down")}
	pub := &fakePublisher{err: errors.New("pubsub down")}
	st.d = New(testOptions(), st.queue, pub, records, st.guard)
	return st, lowWorker(st)
}

func TestWorker_RetryThenDeadLetter(t *testing.T) {
	st, w := failingStack(t)
	enqueue(t, st, testJob("doomed"), models.PriorityLow)

	want := []TickOutcome{TickRetried, TickRetried, TickDead}
	for i, outcome := range want {
		if got := w.Tick(context.Background()); got != outcome {
			t.Fatalf("Tick() #%d = %q, want %q", i, got, outcome)
		}
	}

	if got := queueLen(t, st, models.PriorityLow); got != 0 {
		t.Errorf("queue length = %d, want 0", got)
	}
	dead, err := st.queue.DeadLength(context.Background(), testQueue)
	if err != nil || dead != 1 {
		t.Fatalf("DeadLength() = %d, %v; want 1", dead, err)
	}

	raw, err := st.mr.Lpop(queue.DeadKey(testQueue))
	if err != nil {
		t.Fatalf("pop dead letter: %v", err)
	}
	var env models.QueueEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("decode dead letter: %v", err)
	}
	if env.Attempts != 3 || env.LastError == "" || env.ID != "doomed" {
		t.Errorf("dead envelope = %+v", env)
	}
}

func TestWorker_InvalidJobIsDeadLettered(t *testing.T) {
	st := newStack(t)
	w := lowWorker(st)
	job := testJob("broken")
	job.Data.UserID = ""
	enqueue(t, st, job, models.PriorityLow)

	if got := w.Tick(context.Background()); got != TickDead {
		t.Errorf("Tick() = %q, want dead", got)
	}
}

func TestWorker_MalformedEntry(t *testing.T) {
	st := newStack(t)
	w := lowWorker(st)
	st.mr.Lpush(queue.Key(testQueue, models.PriorityLow), "not an envelope")

	if got := w.Tick(context.Background()); got != TickMalformed {
		t.Errorf("Tick() = %q, want malformed", got)
	}
	if got := queueLen(t, st, models.PriorityLow); got != 0 {
		t.Errorf("malformed entry left in queue: %d", got)
	}
}

func TestWorker_StoreDown(t *testing.T) {
	st := newStack(t)
	w := lowWorker(st)
	st.mr.Close()

	if got := w.Tick(context.Background()); got != TickError {
		t.Errorf("Tick() = %q, want error", got)
	}
}

func TestWorker_Serve(t *testing.T) {
	st := newStack(t)
	w := lowWorker(st)
	enqueue(t, st, testJob("n1"), models.PriorityLow)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Serve(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for !st.mr.Exists("notification:n1") {
		if time.Now().After(deadline) {
			t.Fatal("worker never executed the job")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !w.IsProcessing() {
		t.Error("IsProcessing() = false while serving")
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop")
	}
	if w.IsProcessing() {
		t.Error("IsProcessing() = true after stop")
	}
}
