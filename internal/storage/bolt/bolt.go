package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/shoplane-labs/push-dispatch/internal/model"
	"github.com/shoplane-labs/push-dispatch/internal/storage"
	bolt "go.etcd.io/bbolt"
)

var _ storage.Store = (*Store)(nil)

var (
	bucketNotifications = []byte("notifications")
	bucketUsers         = []byte("users")
)

// Store is a BoltDB-backed Store implementation.
type Store struct {
	db *bolt.DB
}

// New initialises the Bolt store.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketNotifications); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketUsers)
		return err
	}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes underlying Bolt DB.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertNotification appends a notification record, assigning its id and
// timestamps. Duplicate gateway notification ids are permitted.
func (s *Store) InsertNotification(ctx context.Context, n *model.Notification) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketNotifications)
		id, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		n.ID = id
		payload, err := json.Marshal(n)
		if err != nil {
			return err
		}
		return bkt.Put(sequenceKey(id), payload)
	})
}

// ListNotifications returns all records, most recent first. Big-endian
// sequence keys make the reverse cursor walk insertion order.
func (s *Store) ListNotifications(ctx context.Context) ([]*model.Notification, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	var notifications []*model.Notification
	err := s.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket(bucketNotifications).Cursor()
		for k, v := cur.Last(); k != nil; k, v = cur.Prev() {
			var n model.Notification
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			notifications = append(notifications, &n)
		}
		return nil
	})
	return notifications, err
}

// DeleteNotification removes a record by id, reporting whether it existed.
func (s *Store) DeleteNotification(ctx context.Context, id uint64) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}
	removed := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketNotifications)
		key := sequenceKey(id)
		if bkt.Get(key) == nil {
			return nil
		}
		removed = true
		return bkt.Delete(key)
	})
	return removed, err
}

// UpsertUser stores or updates a user record keyed by name.
func (s *Store) UpsertUser(ctx context.Context, user *model.User) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsers).Put([]byte(user.Name), payload)
	})
}

// GetUser fetches a user by name.
func (s *Store) GetUser(ctx context.Context, name string) (*model.User, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	var user *model.User
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUsers).Get([]byte(name))
		if v == nil {
			return nil
		}
		var decoded model.User
		if err := json.Unmarshal(v, &decoded); err != nil {
			return err
		}
		user = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

// ListSubscribedUsers returns users holding a non-empty player id.
func (s *Store) ListSubscribedUsers(ctx context.Context) ([]*model.User, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	var users []*model.User
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(_, v []byte) error {
			var user model.User
			if err := json.Unmarshal(v, &user); err != nil {
				return err
			}
			if user.Subscribed() {
				copied := user
				users = append(users, &copied)
			}
			return nil
		})
	})
	return users, err
}

func sequenceKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}
