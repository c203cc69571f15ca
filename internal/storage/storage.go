package storage

import (
	"context"

	"github.com/shoplane-labs/push-dispatch/internal/model"
)

// Store abstracts notification history and user persistence.
type Store interface {
	InsertNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context) ([]*model.Notification, error)
	DeleteNotification(ctx context.Context, id uint64) (bool, error)
	UpsertUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, name string) (*model.User, error)
	ListSubscribedUsers(ctx context.Context) ([]*model.User, error)
	Close() error
}
