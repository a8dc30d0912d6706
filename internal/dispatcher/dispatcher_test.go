// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package dispatcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/hearth/internal/broadcast"
	"github.com/tomtom215/hearth/internal/ephemeral"
	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/models"
	"github.com/tomtom215/hearth/internal/queue"
	"github.com/tomtom215/hearth/internal/store"
	"github.com/tomtom215/hearth/internal/store/storetest"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

const testQueue = "notifications"

// published is one recorded Publish call.
type published struct {
	channel string
	payload []byte
}

// fakePublisher records publishes and can fail selected channels.
type fakePublisher struct {
	mu     sync.Mutex
	msgs   []published
	err    error
	failOn map[string]bool
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil || f.failOn[channel] {
		return fmt.Errorf("publish %s: %w", channel, store.ErrUnavailable)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.msgs = append(f.msgs, published{channel, data})
	return nil
}

func (f *fakePublisher) channels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.channel)
	}
	return out
}

// fakeQueue is an in-memory Enqueuer.
type fakeQueue struct {
	mu   sync.Mutex
	envs []models.QueueEnvelope
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, _ string, _ models.Priority, env *models.QueueEnvelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.envs = append(f.envs, *env)
	return nil
}

// fakeRecords is an in-memory RecordStore.
type fakeRecords struct {
	mu       sync.Mutex
	saved    []models.NotificationRecord
	ttls     []time.Duration
	err      error
	settings map[string]models.NotificationSettings
}

func (f *fakeRecords) SaveNotification(_ context.Context, rec *models.NotificationRecord, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if ttl <= 0 {
		return ephemeral.ErrExpired
	}
	f.saved = append(f.saved, *rec)
	f.ttls = append(f.ttls, ttl)
	return nil
}

func (f *fakeRecords) GetSettings(_ context.Context, userID string) (models.NotificationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.settings[userID]; ok {
		return s, nil
	}
	return models.DefaultSettings(userID), nil
}

func (f *fakeRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

// memGuard is an in-process Claimer.
type memGuard struct {
	mu       sync.Mutex
	claimed  map[string]bool
	released []string
}

func newMemGuard() *memGuard {
	return &memGuard{claimed: make(map[string]bool)}
}

func (g *memGuard) Claim(_ context.Context, id string, _ *time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claimed[id] {
		return false, nil
	}
	g.claimed[id] = true
	return true, nil
}

func (g *memGuard) Release(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, id)
	g.released = append(g.released, id)
	return nil
}

func testOptions() Options {
	return Options{
		QueueName:   testQueue,
		MaxAttempts: 3,
		RecordTTL:   models.DefaultRecordTTL,
	}
}

func newFakeDispatcher() (*Dispatcher, *fakeQueue, *fakePublisher, *fakeRecords, *memGuard) {
	q := &fakeQueue{}
	pub := &fakePublisher{}
	records := &fakeRecords{}
	guard := newMemGuard()
	return New(testOptions(), q, pub, records, guard), q, pub, records, guard
}

// stack is a dispatcher wired to real components on miniredis.
type stack struct {
	mr      *miniredis.Miniredis
	store   *store.Store
	queue   *queue.Queue
	router  *broadcast.Router
	records *ephemeral.Store
	guard   *Guard
	d       *Dispatcher
}

func newStack(t *testing.T) *stack {
	t.Helper()
	s, mr := storetest.New(t)
	q := queue.New(s.Command, queue.BreakerConfig{Name: t.Name(), FailureThreshold: 100})
	router := broadcast.NewRouter(s.Publisher, s.Subscriber)
	records := ephemeral.New(s.Command)
	guard := NewGuard(s.Command, 1000, time.Hour)
	return &stack{
		mr:      mr,
		store:   s,
		queue:   q,
		router:  router,
		records: records,
		guard:   guard,
		d:       New(testOptions(), q, router, records, guard),
	}
}

func testJob(id string) *models.NotificationJob {
	return &models.NotificationJob{
		ID:        id,
		Type:      models.TypeTaskAssigned,
		Channels:  []models.Channel{models.ChannelApp},
		Data:      models.NotificationData{UserID: "42", TaskTitle: "Dishes", Message: "Your turn"},
		CreatedAt: time.Now().UTC(),
	}
}

func submitRequest() *models.SubmitRequest {
	return &models.SubmitRequest{
		Type:     models.TypeTaskAssigned,
		Channels: []models.Channel{models.ChannelApp},
		Data:     &models.NotificationData{UserID: "42", Message: "Your turn"},
	}
}

func TestSubmit_UniqueIDs(t *testing.T) {
	d, q, pub, _, _ := newFakeDispatcher()
	ctx := context.Background()

	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		job, err := d.Submit(ctx, submitRequest())
		if err != nil {
			t.Fatalf("Submit() #%d error = %v", i, err)
		}
		if _, dup := seen[job.ID]; dup {
			t.Fatalf("duplicate id %s after %d submissions", job.ID, i)
		}
		seen[job.ID] = struct{}{}
	}

	if len(q.envs) != n {
		t.Errorf("enqueued = %d, want %d", len(q.envs), n)
	}
	if got := len(pub.channels()); got != n {
		t.Errorf("published = %d, want %d", got, n)
	}
}

func TestSubmit_DualWrite(t *testing.T) {
	d, q, pub, _, _ := newFakeDispatcher()

	job, err := d.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.CreatedAt.IsZero() || job.ID == "" {
		t.Errorf("server fields not assigned: %+v", job)
	}

	if len(q.envs) != 1 {
		t.Fatalf("enqueued = %d, want 1", len(q.envs))
	}
	env := q.envs[0]
	if env.ID != job.ID || env.Type != models.EnvelopeType || env.MaxAttempts != 3 || env.Attempts != 0 {
		t.Errorf("envelope = %+v", env)
	}

	if len(pub.msgs) != 1 || pub.msgs[0].channel != broadcast.NewNotificationChannel {
		t.Fatalf("published = %v", pub.channels())
	}
	var got models.NotificationJob
	if err := json.Unmarshal(pub.msgs[0].payload, &got); err != nil {
		t.Fatalf("decode published job: %v", err)
	}
	if got.ID != job.ID || got.Data.UserID != "42" {
		t.Errorf("published job = %+v", got)
	}
}

func TestSubmit_Priority(t *testing.T) {
	tests := []struct {
		name     string
		priority string
		want     models.Priority
		wantErr  bool
	}{
		{"default", "", models.DefaultPriority, false},
		{"high", "high", models.PriorityHigh, false},
		{"low", "low", models.PriorityLow, false},
		{"unknown", "urgent", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, q, _, _, _ := newFakeDispatcher()
			req := submitRequest()
			req.Priority = tt.priority

			job, err := d.Submit(context.Background(), req)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidJob) {
					t.Errorf("Submit() error = %v, want ErrInvalidJob", err)
				}
				if len(q.envs) != 0 {
					t.Error("invalid submission was enqueued")
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if job.Priority != tt.want || q.envs[0].Priority != tt.want {
				t.Errorf("priority = %q / %q, want %q", job.Priority, q.envs[0].Priority, tt.want)
			}
		})
	}
}

func TestSubmit_ConfiguredDefaultPriority(t *testing.T) {
	opts := testOptions()
	opts.DefaultPriority = models.PriorityHigh
	d := New(opts, &fakeQueue{}, &fakePublisher{}, &fakeRecords{}, newMemGuard())

	job, err := d.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.Priority != models.PriorityHigh {
		t.Errorf("priority = %q, want high", job.Priority)
	}
}

func TestSubmit_Invalid(t *testing.T) {
	d, q, pub, _, _ := newFakeDispatcher()
	for name, req := range map[string]*models.SubmitRequest{
		"nil":         nil,
		"no data":     {Type: models.TypeTaskAssigned, Channels: []models.Channel{models.ChannelApp}},
		"no channels": {Type: models.TypeTaskAssigned, Data: &models.NotificationData{UserID: "1"}},
		"no user":     {Type: models.TypeTaskAssigned, Channels: []models.Channel{models.ChannelApp}, Data: &models.NotificationData{Message: "m"}},
		"no message":  {Type: models.TypeTaskAssigned, Channels: []models.Channel{models.ChannelApp}, Data: &models.NotificationData{UserID: "1"}},
	} {
		if _, err := d.Submit(context.Background(), req); !errors.Is(err, ErrInvalidJob) {
			t.Errorf("%s: error = %v, want ErrInvalidJob", name, err)
		}
	}
	if len(q.envs) != 0 || len(pub.msgs) != 0 {
		t.Error("invalid submissions reached the queue or pub/sub")
	}
}

func TestSubmit_EnqueueFailure(t *testing.T) {
	d, q, pub, _, _ := newFakeDispatcher()
	q.err = store.Unavailable("lpush", errors.New("connection refused"))

	job, err := d.Submit(context.Background(), submitRequest())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Submit() error = %v, want ErrUnavailable", err)
	}
	if job != nil {
		t.Error("failed submission returned a job")
	}
	if len(pub.msgs) != 1 {
		t.Errorf("publish attempts = %d, want 1", len(pub.msgs))
	}
}

func TestSubmit_PublishFailureIsNotFatal(t *testing.T) {
	d, q, pub, _, _ := newFakeDispatcher()
	pub.err = errors.New("down")

	if _, err := d.Submit(context.Background(), submitRequest()); err != nil {
		t.Fatalf("Submit() error = %v, want nil", err)
	}
	if len(q.envs) != 1 {
		t.Errorf("enqueued = %d, want 1", len(q.envs))
	}
}

func TestExecute_PersistsAndPublishes(t *testing.T) {
	d, _, pub, records, _ := newFakeDispatcher()
	job := testJob("n1")

	if err := d.Execute(context.Background(), job, TriggerWorker); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if records.count() != 1 {
		t.Fatalf("records = %d, want 1", records.count())
	}
	rec := records.saved[0]
	if rec.NotificationID != "n1" || rec.UserID != "42" || rec.Title != "Dishes" || rec.Read {
		t.Errorf("record = %+v", rec)
	}
	if records.ttls[0] != models.DefaultRecordTTL {
		t.Errorf("ttl = %v, want %v", records.ttls[0], models.DefaultRecordTTL)
	}

	if got := pub.channels(); len(got) != 1 || got[0] != "user:42:notifications" {
		t.Fatalf("channels = %v", got)
	}
	var payload models.RealtimeNotification
	if err := json.Unmarshal(pub.msgs[0].payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.ID != "n1" || payload.Title != "Dishes" || payload.Read {
		t.Errorf("payload = %+v", payload)
	}
}

func TestExecute_Duplicate(t *testing.T) {
	d, _, pub, records, _ := newFakeDispatcher()
	job := testJob("n1")

	if err := d.Execute(context.Background(), job, TriggerPubSub); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if err := d.Execute(context.Background(), job, TriggerWorker); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Execute() error = %v, want ErrDuplicate", err)
	}

	if records.count() != 1 {
		t.Errorf("records = %d, want 1", records.count())
	}
	if len(pub.msgs) != 1 {
		t.Errorf("publishes = %d, want 1", len(pub.msgs))
	}
}

func TestExecute_ConcurrentTriggersRunOnce(t *testing.T) {
	st := newStack(t)
	job := testJob("race")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			trigger := TriggerWorker
			if i%2 == 0 {
				trigger = TriggerPubSub
			}
			errs <- st.d.Execute(context.Background(), testJob(job.ID), trigger)
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, ErrDuplicate):
			t.Errorf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful executions = %d, want 1", ok)
	}
}

func TestExecute_AppFanout(t *testing.T) {
	d, _, pub, _, _ := newFakeDispatcher()
	job := testJob("n1")
	job.Data.Recipients = []string{"43", "42", ""}
	job.Data.BossUserID = "44"
	job.Data.FamilyID = "f1"

	if err := d.Execute(context.Background(), job, TriggerWorker); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{
		"family:f1:notifications",
		"user:42:notifications",
		"user:43:notifications",
		"user:44:notifications",
	}
	got := pub.channels()
	sort.Strings(got)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("channels = %v, want %v", got, want)
	}
}

func TestExecute_SettingsFilter(t *testing.T) {
	d, _, pub, records, _ := newFakeDispatcher()
	records.settings = map[string]models.NotificationSettings{
		"42": {UserID: "42", AppEnabled: false, EmailEnabled: true},
	}
	job := testJob("n1")
	job.Channels = []models.Channel{models.ChannelApp, models.ChannelEmail}

	if err := d.Execute(context.Background(), job, TriggerWorker); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Errorf("app channel ran despite being disabled: %v", pub.channels())
	}
	if records.count() != 1 {
		t.Error("record should persist even when channels are filtered")
	}
}

func TestExecute_MutedType(t *testing.T) {
	d, _, pub, records, _ := newFakeDispatcher()
	records.settings = map[string]models.NotificationSettings{
		"42": {UserID: "42", AppEnabled: true, EmailEnabled: true, MutedTypes: []models.NotificationType{models.TypeTaskAssigned}},
	}

	if err := d.Execute(context.Background(), testJob("n1"), TriggerWorker); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Error("muted type was delivered")
	}
}

func TestExecute_TotalFailureReleasesClaim(t *testing.T) {
	d, _, pub, records, guard := newFakeDispatcher()
	records.err = store.Unavailable("set", errors.New("down"))
	pub.err = errors.New("down")
	job := testJob("n1")

	err := d.Execute(context.Background(), job, TriggerWorker)
	if !errors.Is(err, ErrExecutionFailed) {
		t.Fatalf("Execute() error = %v, want ErrExecutionFailed", err)
	}
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("cause not wrapped: %v", err)
	}
	if len(guard.released) != 1 || guard.released[0] != "n1" {
		t.Errorf("released = %v", guard.released)
	}

	// Once the store recovers the job can run again.
	records.err = nil
	pub.err = nil
	if err := d.Execute(context.Background(), job, TriggerWorker); err != nil {
		t.Errorf("Execute() after recovery error = %v", err)
	}
}

func TestExecute_PartialFailureKeepsClaim(t *testing.T) {
	tests := []struct {
		name       string
		persistErr error
		publishErr error
	}{
		{"persist fails", errors.New("down"), nil},
		{"channel fails", nil, errors.New("down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, pub, records, guard := newFakeDispatcher()
			records.err = tt.persistErr
			pub.err = tt.publishErr

			if err := d.Execute(context.Background(), testJob("n1"), TriggerWorker); err != nil {
				t.Fatalf("Execute() error = %v, want nil", err)
			}
			if len(guard.released) != 0 {
				t.Error("claim released after partial success")
			}
		})
	}
}

func TestExecute_ExpiredRecordStillDispatches(t *testing.T) {
	d, _, pub, records, _ := newFakeDispatcher()
	job := testJob("n1")
	past := time.Now().Add(-8 * 24 * time.Hour)
	job.ScheduledFor = &past

	if err := d.Execute(context.Background(), job, TriggerWorker); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if records.count() != 0 {
		t.Error("expired record was stored")
	}
	if len(pub.msgs) != 1 {
		t.Errorf("publishes = %d, want 1", len(pub.msgs))
	}
}

type panicChannel struct{}

func (panicChannel) Channel() models.Channel { return models.ChannelEmail }
func (panicChannel) Dispatch(context.Context, *models.NotificationJob) error {
	panic("smtp exploded")
}

func TestExecute_ChannelPanicIsContained(t *testing.T) {
	d, _, pub, _, _ := newFakeDispatcher()
	d.RegisterChannel(panicChannel{})
	job := testJob("n1")
	job.Channels = []models.Channel{models.ChannelEmail, models.ChannelApp}

	if err := d.Execute(context.Background(), job, TriggerWorker); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(pub.msgs) != 1 {
		t.Error("app channel did not run after email panicked")
	}
}

func TestExecute_InvalidJob(t *testing.T) {
	d, _, _, records, _ := newFakeDispatcher()
	job := testJob("")

	if err := d.Execute(context.Background(), job, TriggerPubSub); !errors.Is(err, ErrInvalidJob) {
		t.Errorf("Execute() error = %v, want ErrInvalidJob", err)
	}
	if records.count() != 0 {
		t.Error("invalid job persisted")
	}
}

// Each line carries the job id from the context exactly once.
func TestExecute_LogsJobIDOnce(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.ErrorLevel) })

	var buf bytes.Buffer
	ctx := logging.ContextWithLogger(context.Background(), zerolog.New(&buf))

	d, _, _, _, _ := newFakeDispatcher()
	job := testJob("n-log")
	job.Channels = []models.Channel{models.ChannelApp, models.ChannelEmail}
	if err := d.Execute(ctx, job, TriggerWorker); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("Execute() logged nothing")
	}
	for _, line := range lines {
		if n := strings.Count(line, `"job_id"`); n != 1 {
			t.Errorf("job_id appears %d times in %s", n, line)
		}
		if !strings.Contains(line, `"job_id":"n-log"`) {
			t.Errorf("line missing job id: %s", line)
		}
	}
}

func TestHandleNewNotification_Malformed(t *testing.T) {
	d, _, _, records, _ := newFakeDispatcher()

	for _, payload := range []string{`{not json`, `{"id":"x"}`} {
		err := d.HandleNewNotification(context.Background(), broadcast.Message{
			Channel: broadcast.NewNotificationChannel,
			Payload: []byte(payload),
		})
		if !errors.Is(err, ErrMalformedMessage) {
			t.Errorf("payload %s: error = %v, want ErrMalformedMessage", payload, err)
		}
	}
	err := d.handleInBackground(context.Background(), broadcast.Message{
		Channel: broadcast.NewNotificationChannel,
		Payload: []byte(`{not json`),
	})
	if !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("background handler error = %v, want ErrMalformedMessage", err)
	}
	d.Wait()
	if records.count() != 0 {
		t.Error("malformed message persisted a record")
	}
}

func TestHandleNewNotification_DuplicateIsNotAnError(t *testing.T) {
	d, _, _, _, _ := newFakeDispatcher()
	payload, _ := json.Marshal(testJob("n1"))
	msg := broadcast.Message{Channel: broadcast.NewNotificationChannel, Payload: payload}

	for i := 0; i < 2; i++ {
		if err := d.HandleNewNotification(context.Background(), msg); err != nil {
			t.Fatalf("delivery %d: error = %v", i, err)
		}
	}
}

// Publishing job n1 on notification:new stores notification:n1 for seven days.
func TestFastPath_PersistsWithDefaultTTL(t *testing.T) {
	st := newStack(t)
	if err := st.d.Attach(st.router); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = st.router.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	select {
	case <-st.router.Ready():
	case <-time.After(3 * time.Second):
		t.Fatal("router not ready")
	}

	job := testJob("n1")
	job.Data.UserID = "u1"
	if err := st.router.Publish(context.Background(), broadcast.NewNotificationChannel, job); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for !st.mr.Exists("notification:n1") {
		if time.Now().After(deadline) {
			t.Fatal("notification:n1 was never stored")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if ttl := st.mr.TTL("notification:n1"); ttl != 604800*time.Second {
		t.Errorf("TTL = %v, want 604800s", ttl)
	}
	rec, err := st.records.GetNotification(context.Background(), "n1")
	if err != nil || rec == nil {
		t.Fatalf("GetNotification() = %v, %v", rec, err)
	}
	if rec.UserID != "u1" {
		t.Errorf("user_id = %q, want u1", rec.UserID)
	}
	if !st.mr.Exists(SeenKey("n1")) {
		t.Error("idempotency marker not set")
	}
}

// blockingChannel holds Dispatch until released or canceled.
type blockingChannel struct {
	started chan struct{}
	release chan struct{}
}

func (blockingChannel) Channel() models.Channel { return models.ChannelEmail }

func (b blockingChannel) Dispatch(ctx context.Context, _ *models.NotificationJob) error {
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}

// A slow fast-path execution does not hold up fanout on the same connection.
func TestFastPath_SlowExecuteDoesNotBlockFanout(t *testing.T) {
	st := newStack(t)
	slow := blockingChannel{started: make(chan struct{}, 1), release: make(chan struct{})}
	st.d.RegisterChannel(slow)
	if err := st.d.Attach(st.router); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	fanout := make(chan string, 1)
	err := st.router.SubscribePattern("family:*:notifications", func(_ context.Context, msg broadcast.Message) error {
		fanout <- msg.Channel
		return nil
	})
	if err != nil {
		t.Fatalf("SubscribePattern() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = st.router.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		close(slow.release)
		cancel()
		<-done
		st.d.Wait()
	})
	select {
	case <-st.router.Ready():
	case <-time.After(3 * time.Second):
		t.Fatal("router not ready")
	}

	job := testJob("slow")
	job.Channels = []models.Channel{models.ChannelEmail}
	if err := st.router.Publish(context.Background(), broadcast.NewNotificationChannel, job); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	select {
	case <-slow.started:
	case <-time.After(3 * time.Second):
		t.Fatal("fast path never reached the email channel")
	}

	if err := st.router.Publish(context.Background(), "family:f1:notifications", []byte(`{}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	select {
	case ch := <-fanout:
		if ch != "family:f1:notifications" {
			t.Errorf("fanout channel = %q", ch)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("family fanout was held behind the running execution")
	}
}
