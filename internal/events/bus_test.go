package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/events"
	"github.com/foodtrucksaas/foodtruck-saas-sub005/internal/store"
)

type stubStore struct {
	lastParams store.InsertDomainEventParams
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg store.InsertDomainEventParams) (store.DomainEvent, error) {
	s.lastParams = arg
	return store.DomainEvent{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}, nil
}

type captureNotifier struct {
	events []store.DomainEvent
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func toUUID(u uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: u, Valid: true}
}

func TestEmitPersistsEvent(t *testing.T) {
	st := &stubStore{}
	notifier := &captureNotifier{}
	bus := &events.Bus{Store: st, Notifiers: []events.Notifier{notifier}}

	orderID := toUUID(uuid.New())
	payload := map[string]any{"total": 4200}
	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, orderID, payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderCreated, ev.Topic)
	require.Equal(t, orderID, st.lastParams.AggregateID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(st.lastParams.Payload, &decoded))
	require.EqualValues(t, 4200, decoded["total"])
	require.Len(t, notifier.events, 1)
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), "  ", toUUID(uuid.New()), nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, pgtype.UUID{}, nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidJSON(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, toUUID(uuid.New()), []byte("{nope"))
	require.Error(t, err)
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	boom := errors.New("boom")
	notifier := &captureNotifier{err: boom}
	bus := &events.Bus{Store: &stubStore{}, Notifiers: []events.Notifier{notifier}}
	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, toUUID(uuid.New()), nil)
	require.ErrorIs(t, err, boom)
	require.True(t, ev.ID.Valid)
}
