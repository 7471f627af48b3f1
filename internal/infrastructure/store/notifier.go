package store

import (
	"context"
	"sync"

	"github.com/propman/backend/internal/domain/syndication"
)

// StoreNotifier appends notifications to a capped list in the store. The UI
// layer reads and clears the list out of band.
type StoreNotifier struct {
	mu    sync.Mutex
	store syndication.Store
}

// NewStoreNotifier creates a store-backed notifier
func NewStoreNotifier(s syndication.Store) *StoreNotifier {
	return &StoreNotifier{store: s}
}

var _ syndication.Notifier = (*StoreNotifier)(nil)

// Notify appends one notification, evicting oldest-first past the cap
func (n *StoreNotifier) Notify(ctx context.Context, notification syndication.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var notifications []syndication.Notification
	if _, err := n.store.Get(ctx, syndication.StoreKeyNotifications, &notifications); err != nil {
		return err
	}
	notifications = syndication.CapList(append(notifications, notification), syndication.MaxNotifications)
	return n.store.Set(ctx, syndication.StoreKeyNotifications, notifications)
}

// Notifications returns the current notification list
func (n *StoreNotifier) Notifications(ctx context.Context) ([]syndication.Notification, error) {
	var notifications []syndication.Notification
	if _, err := n.store.Get(ctx, syndication.StoreKeyNotifications, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}
