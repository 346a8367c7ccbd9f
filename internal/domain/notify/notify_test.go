package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuflow/menuflow/internal/domain/order"
)

type mockSubRepo struct {
	subs []Subscription
	err  error
}

func (m *mockSubRepo) ListByOrder(_ context.Context, _ uuid.UUID) ([]Subscription, error) {
	return m.subs, m.err
}

type mockGateway struct {
	mu     sync.Mutex
	sent   []Subscription
	errFor map[string]error
}

func (g *mockGateway) Send(_ context.Context, sub Subscription, _ Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.errFor[sub.Endpoint]; err != nil {
		return err
	}
	g.sent = append(g.sent, sub)
	return nil
}

func (g *mockGateway) delivered() []Subscription {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sent
}

func sub(endpoint string) Subscription {
	return Subscription{ID: uuid.New(), Endpoint: endpoint, P256dh: "key", Auth: "auth"}
}

func TestNotifyStatus_FansOutToAllSubscriptions(t *testing.T) {
	repo := &mockSubRepo{subs: []Subscription{sub("e1"), sub("e2"), sub("e3")}}
	gw := &mockGateway{}
	svc := NewService(repo, gw)

	o := &order.Order{ID: uuid.New(), Status: order.StatusReady}
	require.NoError(t, svc.NotifyStatus(context.Background(), o))

	assert.Len(t, gw.delivered(), 3)
}

func TestNotifyStatus_SilentStatusesSendNothing(t *testing.T) {
	repo := &mockSubRepo{subs: []Subscription{sub("e1")}}
	gw := &mockGateway{}
	svc := NewService(repo, gw)

	for _, s := range []order.Status{order.StatusPending, order.StatusCancelled} {
		o := &order.Order{ID: uuid.New(), Status: s}
		require.NoError(t, svc.NotifyStatus(context.Background(), o))
	}
	assert.Empty(t, gw.delivered())
}

func TestNotifyStatus_EndpointFailuresAreIsolated(t *testing.T) {
	broken := sub("broken")
	healthy := sub("healthy")
	repo := &mockSubRepo{subs: []Subscription{broken, healthy}}
	gw := &mockGateway{errFor: map[string]error{"broken": errors.New("410 gone")}}
	svc := NewService(repo, gw)

	o := &order.Order{ID: uuid.New(), Status: order.StatusConfirmed}
	err := svc.NotifyStatus(context.Background(), o)

	require.Error(t, err)
	require.Len(t, gw.delivered(), 1)
	assert.Equal(t, "healthy", gw.delivered()[0].Endpoint)
}

func TestNotifyStatus_NoSubscriptions(t *testing.T) {
	svc := NewService(&mockSubRepo{}, &mockGateway{})

	o := &order.Order{ID: uuid.New(), Status: order.StatusConfirmed}
	require.NoError(t, svc.NotifyStatus(context.Background(), o))
}

func TestNotifyStatus_ListError(t *testing.T) {
	svc := NewService(&mockSubRepo{err: errors.New("db down")}, &mockGateway{})

	o := &order.Order{ID: uuid.New(), Status: order.StatusConfirmed}
	require.Error(t, svc.NotifyStatus(context.Background(), o))
}

func TestMessageFor(t *testing.T) {
	for _, s := range []order.Status{
		order.StatusConfirmed, order.StatusPreparing, order.StatusReady, order.StatusCompleted,
	} {
		msg, ok := MessageFor(s)
		require.True(t, ok, string(s))
		assert.NotEmpty(t, msg.Title)
		assert.NotEmpty(t, msg.Body)
	}

	_, ok := MessageFor(order.StatusPending)
	assert.False(t, ok)
	_, ok = MessageFor(order.StatusCancelled)
	assert.False(t, ok)
}
