package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shoplane-labs/push-dispatch/internal/gateway"
	"github.com/shoplane-labs/push-dispatch/internal/model"
	"github.com/shoplane-labs/push-dispatch/internal/service"
	"github.com/shoplane-labs/push-dispatch/internal/storage"
	"github.com/shoplane-labs/push-dispatch/internal/storage/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	sendCalls   int
	lastPayload *gateway.Payload
	id          string
	sendErr     error
	stats       *gateway.RawStats
	statsErr    error
}

func (f *fakeGateway) Send(_ context.Context, payload *gateway.Payload) (string, error) {
	f.sendCalls++
	f.lastPayload = payload
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return f.id, nil
}

func (f *fakeGateway) FetchStats(_ context.Context, _ string) (*gateway.RawStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

// failingStore lets tests simulate a history write failure after the
// gateway has already accepted the notification.
type failingStore struct {
	storage.Store
	insertErr error
}

func (f *failingStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.Store.InsertNotification(ctx, n)
}

func newBoltStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := bolt.New(filepath.Join(t.TempDir(), "push.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newService(t *testing.T, gw service.Gateway) (*service.NotificationService, storage.Store) {
	t.Helper()
	store := newBoltStore(t)
	subs := service.NewSubscriptionService(store)
	return service.NewNotificationService(store, gw, subs), store
}

func TestDispatchSegmentBroadcast(t *testing.T) {
	gw := &fakeGateway{id: "N1"}
	svc, store := newService(t, gw)
	ctx := context.Background()

	result, err := svc.Dispatch(ctx, service.DispatchRequest{
		Title:       "Sale",
		Description: "50% off",
		ImageURL:    "http://x/img.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "N1", result.NotificationID)
	assert.True(t, result.Recorded)

	// segment mode fans out gateway-side, no local token lookup
	assert.Equal(t, []string{"All"}, gw.lastPayload.IncludedSegments)
	assert.Equal(t, "http://x/img.png", gw.lastPayload.BigPicture)

	list, err := store.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "N1", list[0].NotificationID)
	assert.Equal(t, "Sale", list[0].Title)
	assert.Equal(t, "50% off", list[0].Description)
}

func TestDispatchToSubscribers(t *testing.T) {
	gw := &fakeGateway{id: "N1"}
	svc, store := newService(t, gw)
	ctx := context.Background()

	require.NoError(t, store.UpsertUser(ctx, &model.User{Name: "alice", PlayerID: "t1"}))
	require.NoError(t, store.UpsertUser(ctx, &model.User{Name: "bob", PlayerID: "t2"}))

	result, err := svc.Dispatch(ctx, service.DispatchRequest{
		Title:       "Sale",
		Description: "50% off",
		Audience:    service.AudienceSubscribers,
	})
	require.NoError(t, err)
	assert.True(t, result.Recorded)
	assert.ElementsMatch(t, []string{"t1", "t2"}, gw.lastPayload.IncludePlayerIDs)
	assert.Empty(t, gw.lastPayload.IncludedSegments)
}

func TestDispatchValidation(t *testing.T) {
	gw := &fakeGateway{id: "N1"}
	svc, store := newService(t, gw)
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, service.DispatchRequest{Title: "  ", Description: "50% off"})
	var vErr service.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.Dispatch(ctx, service.DispatchRequest{Title: "Sale", Description: ""})
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.Dispatch(ctx, service.DispatchRequest{Title: "Sale", Description: "50% off", Audience: "everyone"})
	assert.ErrorAs(t, err, &vErr)

	// the gateway was never contacted and nothing was recorded
	assert.Zero(t, gw.sendCalls)
	list, err := store.ListNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatchNoSubscribers(t *testing.T) {
	gw := &fakeGateway{id: "N1"}
	svc, store := newService(t, gw)
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, service.DispatchRequest{
		Title:       "Sale",
		Description: "50% off",
		Audience:    service.AudienceSubscribers,
	})
	assert.ErrorIs(t, err, service.ErrNoSubscribers)
	assert.Zero(t, gw.sendCalls)

	list, err := store.ListNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatchGatewayFailureLeavesNoRecord(t *testing.T) {
	gw := &fakeGateway{sendErr: gateway.ErrRejected}
	svc, store := newService(t, gw)
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, service.DispatchRequest{Title: "Sale", Description: "50% off"})
	assert.ErrorIs(t, err, gateway.ErrRejected)

	list, err := store.ListNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatchPartialSuccess(t *testing.T) {
	gw := &fakeGateway{id: "N1"}
	store := &failingStore{Store: newBoltStore(t), insertErr: errors.New("disk full")}
	subs := service.NewSubscriptionService(store)
	svc := service.NewNotificationService(store, gw, subs)

	result, err := svc.Dispatch(context.Background(), service.DispatchRequest{Title: "Sale", Description: "50% off"})
	require.NoError(t, err)
	assert.Equal(t, "N1", result.NotificationID)
	assert.False(t, result.Recorded)
	assert.Error(t, result.PersistErr)
}

func TestTrackNormalisesStats(t *testing.T) {
	gw := &fakeGateway{
		stats: &gateway.RawStats{
			ID: "N1",
			Platforms: map[string]gateway.PlatformStats{
				"android": {Successful: 5, Failed: 1, Errored: 0, Converted: 2},
			},
		},
	}
	svc, _ := newService(t, gw)

	stats, err := svc.Track(context.Background(), "N1")
	require.NoError(t, err)
	assert.Equal(t, &model.DeliveryStats{
		Platform: "Android",
		Success:  5,
		Failed:   1,
		Errored:  0,
		Opened:   2,
	}, stats)
}

func TestTrackUnknownID(t *testing.T) {
	gw := &fakeGateway{statsErr: gateway.ErrNotFound}
	svc, _ := newService(t, gw)

	_, err := svc.Track(context.Background(), "missing")
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestRemove(t *testing.T) {
	gw := &fakeGateway{id: "N1"}
	svc, store := newService(t, gw)
	ctx := context.Background()

	n := &model.Notification{NotificationID: "N1", Title: "a", Description: "b"}
	require.NoError(t, store.InsertNotification(ctx, n))

	removed, err := svc.Remove(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Remove(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
