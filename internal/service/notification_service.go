package service

import (
	"context"
	"log"
	"strings"

	"github.com/shoplane-labs/push-dispatch/internal/gateway"
	"github.com/shoplane-labs/push-dispatch/internal/model"
	"github.com/shoplane-labs/push-dispatch/internal/storage"
)

// Gateway is the slice of the push gateway client the service needs;
// tests substitute a fake.
type Gateway interface {
	Send(ctx context.Context, payload *gateway.Payload) (string, error)
	FetchStats(ctx context.Context, notificationID string) (*gateway.RawStats, error)
}

// Audience selects how a dispatch is targeted.
type Audience string

const (
	// AudienceSegment lets the gateway fan out to its "All" segment,
	// regardless of locally known subscribers.
	AudienceSegment Audience = "segment"
	// AudienceSubscribers resolves the local addressable set and targets
	// those player ids explicitly.
	AudienceSubscribers Audience = "subscribers"
)

// DispatchRequest is a validated-on-entry send request.
type DispatchRequest struct {
	Title       string
	Description string
	ImageURL    string
	Audience    Audience
}

// DispatchResult reports a dispatch the gateway accepted. Recorded is
// false when the local history write failed after acceptance; the
// notification was still delivered to the provider.
type DispatchResult struct {
	NotificationID string
	Recorded       bool
	PersistErr     error
}

// NotificationService orchestrates dispatch, tracking and history.
type NotificationService struct {
	store storage.Store
	gw    Gateway
	subs  *SubscriptionService
}

// NewNotificationService builds NotificationService.
func NewNotificationService(store storage.Store, gw Gateway, subs *SubscriptionService) *NotificationService {
	return &NotificationService{store: store, gw: gw, subs: subs}
}

// Dispatch validates the request, resolves targeting, sends through the
// gateway and records the receipt. A record exists if and only if the
// gateway returned a notification id.
func (s *NotificationService) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" {
		return nil, ValidationError("title is required")
	}
	if description == "" {
		return nil, ValidationError("description is required")
	}

	target := gateway.SegmentAll()
	switch req.Audience {
	case AudienceSegment, "":
	case AudienceSubscribers:
		tokens, err := s.subs.CurrentTokens(ctx)
		if err != nil {
			return nil, err
		}
		if len(tokens) == 0 {
			return nil, ErrNoSubscribers
		}
		target = gateway.ToPlayers(tokens)
	default:
		return nil, ValidationError("unknown audience: " + string(req.Audience))
	}

	payload, err := gateway.Compose(title, description, req.ImageURL, target)
	if err != nil {
		return nil, ValidationError(err.Error())
	}

	notificationID, err := s.gw.Send(ctx, payload)
	if err != nil {
		return nil, err
	}

	record := &model.Notification{
		NotificationID: notificationID,
		Title:          title,
		Description:    description,
		ImageURL:       strings.TrimSpace(req.ImageURL),
	}
	if err := s.store.InsertNotification(ctx, record); err != nil {
		log.Printf("notification %s accepted but not recorded: %v", notificationID, err)
		return &DispatchResult{NotificationID: notificationID, PersistErr: err}, nil
	}
	return &DispatchResult{NotificationID: notificationID, Recorded: true}, nil
}

// Track fetches gateway delivery statistics and normalises the android
// counters into the canonical shape.
func (s *NotificationService) Track(ctx context.Context, notificationID string) (*model.DeliveryStats, error) {
	stats, err := s.gw.FetchStats(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	android := stats.Platform("android")
	return &model.DeliveryStats{
		Platform: "Android",
		Success:  android.Successful,
		Failed:   android.Failed,
		Errored:  android.Errored,
		Opened:   android.Converted,
	}, nil
}

// List returns the stored history, most recent first.
func (s *NotificationService) List(ctx context.Context) ([]*model.Notification, error) {
	return s.store.ListNotifications(ctx)
}

// Remove deletes a record by id. A missing id reports false so the
// boundary can answer with a not-found status.
func (s *NotificationService) Remove(ctx context.Context, id uint64) (bool, error) {
	return s.store.DeleteNotification(ctx, id)
}
