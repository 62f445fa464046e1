package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/recoverytrack/apiserver/internal/export"
	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/internal/mq"
	"github.com/recoverytrack/apiserver/internal/storage"
	"github.com/recoverytrack/apiserver/internal/store"
	"github.com/recoverytrack/apiserver/types"
)

type publishedEvent struct {
	channel string
	event   types.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, channel string, event types.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.events = append(f.events, publishedEvent{channel: channel, event: event})
	return "msg-1", nil
}

type fakeObserver struct {
	outcomes map[string]int
}

func (f *fakeObserver) ObserveEvent(eventType string, err error) {
	if f.outcomes == nil {
		f.outcomes = map[string]int{}
	}
	key := eventType + ":ok"
	if err != nil {
		key = eventType + ":error"
	}
	f.outcomes[key]++
}

func newMemoryStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s, err := store.NewMemoryStore(store.WithPasswordCost(bcrypt.MinCost))
	require.NoError(t, err)
	return s
}

func TestUserServiceLogin(t *testing.T) {
	svc := NewUserService(newMemoryStore(t))
	ctx := context.Background()

	user, err := svc.Login(ctx, types.Credentials{Username: store.DemoUsername, Password: store.DemoPassword})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	_, err = svc.Login(ctx, types.Credentials{Username: store.DemoUsername, Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMoodServicePublishesEvent(t *testing.T) {
	publisher := &fakePublisher{}
	observer := &fakeObserver{}
	svc := NewMoodService(newMemoryStore(t), NewEvents(publisher, nil, observer))

	log, err := svc.Create(context.Background(), types.NewMoodLog{UserID: 1, Mood: 2, CravingLevel: types.CravingStrong})
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	got := publisher.events[0]
	assert.Equal(t, mq.ChannelMoodLogs, got.channel)
	assert.Equal(t, types.EventMoodLogged, got.event.Type)
	assert.Equal(t, log.ID, got.event.EntityID)
	assert.Equal(t, int64(1), got.event.UserID)

	var payload types.MoodLog
	require.NoError(t, json.Unmarshal(got.event.Payload, &payload))
	assert.Equal(t, types.CravingStrong, payload.CravingLevel)
	assert.Equal(t, 1, observer.outcomes[types.EventMoodLogged+":ok"])
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker unavailable")}
	observer := &fakeObserver{}
	svc := NewCommunityService(newMemoryStore(t), NewEvents(publisher, logger.Nop(), observer))

	post, err := svc.CreatePost(context.Background(), types.NewCommunityPost{UserID: 1, Title: "Week one", Content: "made it"})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Equal(t, 1, observer.outcomes[types.EventCommunityPostCreate+":error"])
}

func TestNilEventsIsNoop(t *testing.T) {
	svc := NewMoodService(newMemoryStore(t), nil)
	_, err := svc.Create(context.Background(), types.NewMoodLog{UserID: 1, Mood: 5, CravingLevel: types.CravingNone})
	assert.NoError(t, err)
}

func TestMedicationServiceOwnership(t *testing.T) {
	s := newMemoryStore(t)
	publisher := &fakePublisher{}
	svc := NewMedicationService(s, NewEvents(publisher, nil, nil))
	ctx := context.Background()

	med, err := svc.Create(ctx, types.NewMedication{UserID: 1, Name: "Naltrexone", Dosage: "50mg", Frequency: "daily"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, 99, med.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	dosage := "25mg"
	_, err = svc.Update(ctx, 99, med.ID, types.MedicationPatch{Dosage: &dosage})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, 1, 12345, types.MedicationPatch{Dosage: &dosage})
	assert.ErrorIs(t, err, store.ErrNotFound)

	updated, err := svc.Update(ctx, 1, med.ID, types.MedicationPatch{Dosage: &dosage})
	require.NoError(t, err)
	assert.Equal(t, "25mg", updated.Dosage)

	_, err = svc.LogDose(ctx, types.NewMedicationLog{MedicationID: med.ID, UserID: 99, Taken: true})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, publisher.events)
}

func TestMedicationServiceLogDoseEvents(t *testing.T) {
	publisher := &fakePublisher{}
	svc := NewMedicationService(newMemoryStore(t), NewEvents(publisher, nil, nil))
	ctx := context.Background()

	med, err := svc.Create(ctx, types.NewMedication{UserID: 1, Name: "Buprenorphine", Dosage: "8mg", Frequency: "daily"})
	require.NoError(t, err)

	_, err = svc.LogDose(ctx, types.NewMedicationLog{MedicationID: med.ID, UserID: 1, Taken: true})
	require.NoError(t, err)
	_, err = svc.LogDose(ctx, types.NewMedicationLog{MedicationID: med.ID, UserID: 1, Taken: false})
	require.NoError(t, err)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, types.EventMedicationTaken, publisher.events[0].event.Type)
	assert.Equal(t, types.EventMedicationMissed, publisher.events[1].event.Type)
	assert.Equal(t, mq.ChannelMedicationLogs, publisher.events[1].channel)

	logs, err := svc.ListLogs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestResourceServiceList(t *testing.T) {
	svc := NewResourceService(newMemoryStore(t))
	ctx := context.Background()

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mindfulness, err := svc.List(ctx, "mindfulness")
	require.NoError(t, err)
	require.Len(t, mindfulness, 1)
	assert.Equal(t, types.ResourceVideo, mindfulness[0].Type)
}

func TestCravingAlertHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewCravingAlertHandler(logger.New(logger.Options{ServiceName: "worker", Output: buf}))
	ctx := context.Background()

	event := func(log types.MoodLog) types.Event {
		payload, err := json.Marshal(log)
		require.NoError(t, err)
		return types.Event{Type: types.EventMoodLogged, UserID: log.UserID, EntityID: log.ID, Payload: payload}
	}

	require.NoError(t, handler.Handle(ctx, event(types.MoodLog{ID: 1, UserID: 1, Mood: 8, CravingLevel: types.CravingStrong})))
	require.NoError(t, handler.Handle(ctx, event(types.MoodLog{ID: 2, UserID: 1, Mood: 3, CravingLevel: types.CravingNone})))
	require.NoError(t, handler.Handle(ctx, event(types.MoodLog{ID: 3, UserID: 1, Mood: 7, CravingLevel: types.CravingModerate})))
	require.NoError(t, handler.Handle(ctx, types.Event{Type: types.EventCommunityPostCreate, Payload: json.RawMessage(`{}`)}))

	assert.Equal(t, int64(2), handler.Alerts())
	assert.Contains(t, buf.String(), `"reason":"strong_craving"`)
	assert.Contains(t, buf.String(), `"reason":"low_mood"`)

	err := handler.Handle(ctx, types.Event{Type: types.EventMoodLogged, Payload: json.RawMessage(`"nope"`)})
	assert.Error(t, err)
}

func TestCravingAlertHandlerConsumesFromQueue(t *testing.T) {
	queue := mq.New(mq.NewMemoryBackend(4))
	handler := NewCravingAlertHandler(nil)
	svc := NewMoodService(newMemoryStore(t), NewEvents(queue, nil, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := svc.Create(ctx, types.NewMoodLog{UserID: 1, Mood: 1, CravingLevel: types.CravingMild})
	require.NoError(t, err)

	go func() { _ = queue.SubscribeEvents(ctx, mq.ChannelMoodLogs, handler.Handle) }()

	assert.Eventually(t, func() bool { return handler.Alerts() == 1 }, time.Second, 10*time.Millisecond)
}

func TestExportServiceUploadAndOpen(t *testing.T) {
	s := newMemoryStore(t)
	objects := storage.NewMemoryObjectStorage("recovery-exports")
	svc := NewExportService(s, storage.NewStorage(objects))
	ctx := context.Background()
	require.True(t, svc.Stored())

	_, err := s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 1, Mood: 6, CravingLevel: types.CravingMild})
	require.NoError(t, err)

	result, err := svc.Upload(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "recovery-exports", result.Bucket)
	assert.Equal(t, ObjectKey(1, result.ExportID), result.ObjectKey)
	assert.Regexp(t, `^exports/user-1/[0-9a-f-]{36}\.xlsx$`, result.ObjectKey)
	assert.Equal(t, "memory://recovery-exports/"+result.ObjectKey, result.URL)
	assert.Equal(t, export.ContentType, objects.ContentType(result.ObjectKey))

	reader, err := svc.Open(ctx, 1, result.ExportID)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetMoodLogs)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = svc.Open(ctx, 2, result.ExportID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.Open(ctx, 1, "../../etc/passwd")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExportServiceWithoutStorage(t *testing.T) {
	svc := NewExportService(newMemoryStore(t), nil)
	ctx := context.Background()
	assert.False(t, svc.Stored())

	_, err := svc.Upload(ctx, 1)
	assert.ErrorIs(t, err, ErrExportsDisabled)

	data, err := svc.Render(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = svc.Render(ctx, 404)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
