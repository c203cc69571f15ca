package service

import (
	"context"
	"strings"

	"github.com/shoplane-labs/push-dispatch/internal/model"
	"github.com/shoplane-labs/push-dispatch/internal/storage"
)

// SubscriptionService maintains the user to player-id mapping and answers
// who is currently push-addressable.
type SubscriptionService struct {
	store storage.Store
}

// NewSubscriptionService constructs SubscriptionService.
func NewSubscriptionService(store storage.Store) *SubscriptionService {
	return &SubscriptionService{store: store}
}

// CurrentTokens returns every non-empty player id at call time. No
// subscribers is an empty slice, not an error.
func (s *SubscriptionService) CurrentTokens(ctx context.Context) ([]string, error) {
	users, err := s.store.ListSubscribedUsers(ctx)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(users))
	seen := make(map[string]struct{}, len(users))
	for _, user := range users {
		token := strings.TrimSpace(user.PlayerID)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// SetPlayerID upserts the user's player id, last write wins. An empty id
// is a no-op: a stored token is never cleared implicitly.
func (s *SubscriptionService) SetPlayerID(ctx context.Context, name, playerID string) error {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil
	}
	user, err := s.store.GetUser(ctx, name)
	if err != nil {
		return err
	}
	if user.PlayerID == playerID {
		return nil
	}
	user.PlayerID = playerID
	return s.store.UpsertUser(ctx, user)
}

// ListSubscribed returns client-safe views of all subscribed users.
func (s *SubscriptionService) ListSubscribed(ctx context.Context) ([]*model.UserView, error) {
	users, err := s.store.ListSubscribedUsers(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]*model.UserView, 0, len(users))
	for _, user := range users {
		views = append(views, user.View())
	}
	return views, nil
}
