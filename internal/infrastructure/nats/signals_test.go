package nats

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
	err   error
}

func (r *recorder) Picked(_ context.Context, id string) error {
	r.calls = append(r.calls, "picked:"+id)
	return r.err
}

func (r *recorder) Delivered(_ context.Context, id string) error {
	r.calls = append(r.calls, "delivered:"+id)
	return r.err
}

func (r *recorder) Failed(_ context.Context, id string) error {
	r.calls = append(r.calls, "failed:"+id)
	return r.err
}

func (r *recorder) Success(_ context.Context, id string) error {
	r.calls = append(r.calls, "success:"+id)
	return r.err
}

func msg(t *testing.T, subject string, sig Signal) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(sig)
	require.NoError(t, err)
	return &nats.Msg{Subject: subject, Data: data}
}

func TestDispatchRoutesSubjects(t *testing.T) {
	del, pay := &recorder{}, &recorder{}
	s := NewSubscriber(nil, "fulfillment", del, pay, nil)
	ctx := context.Background()

	require.NoError(t, s.dispatch(ctx, msg(t, SubjectDeliveryPicked, Signal{DeliveryID: "d-1"})))
	require.NoError(t, s.dispatch(ctx, msg(t, SubjectDeliveryDelivered, Signal{OrderID: "o-1"})))
	require.NoError(t, s.dispatch(ctx, msg(t, SubjectDeliveryFailed, Signal{OrderID: "o-2"})))
	require.NoError(t, s.dispatch(ctx, msg(t, SubjectPaymentSucceeded, Signal{PaymentID: "p-1"})))
	require.NoError(t, s.dispatch(ctx, msg(t, SubjectPaymentFailed, Signal{PaymentID: "p-2"})))

	assert.Equal(t, []string{"picked:d-1", "delivered:o-1", "failed:o-2"}, del.calls)
	assert.Equal(t, []string{"success:p-1", "failed:p-2"}, pay.calls)
}

func TestDispatchRejectsBadSignals(t *testing.T) {
	del := &recorder{}
	s := NewSubscriber(nil, "fulfillment", del, &recorder{}, nil)
	ctx := context.Background()

	assert.ErrorIs(t, s.dispatch(ctx, msg(t, SubjectDeliveryDelivered, Signal{})), errMissingID)
	assert.Error(t, s.dispatch(ctx, &nats.Msg{Subject: SubjectDeliveryPicked, Data: []byte("{")}))
	assert.Error(t, s.dispatch(ctx, msg(t, "fulfillment.unknown", Signal{OrderID: "o"})))
	assert.Empty(t, del.calls)
}

func TestReplyCarriesStatus(t *testing.T) {
	var ok Reply
	require.NoError(t, json.Unmarshal(replyFor(nil), &ok))
	assert.True(t, ok.OK)

	var failed Reply
	require.NoError(t, json.Unmarshal(replyFor(delivery.ErrNotFound), &failed))
	assert.False(t, failed.OK)
	assert.Equal(t, "NOT_FOUND", failed.Status)
	assert.Contains(t, failed.Error, "delivery")
}

func TestHandleWithoutReplyDoesNotPanic(t *testing.T) {
	del := &recorder{err: delivery.ErrInvalidStateTransition}
	s := NewSubscriber(nil, "fulfillment", del, &recorder{}, nil)
	s.handle(msg(t, SubjectDeliveryFailed, Signal{OrderID: "o-3"}))
	assert.Equal(t, []string{"failed:o-3"}, del.calls)
}
