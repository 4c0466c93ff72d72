package repository

import (
	"sort"
	"time"

	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

// CreateNotification persists a notification row
func (r *Repository) CreateNotification(n *types.Notification) (*types.Notification, error) {
	if n.ID == "" {
		n.ID = NewID()
	}
	n.CreatedAt = time.Now()

	notifications := r.loadNotifications()
	notifications = append(notifications, n)
	if err := r.save(storage.CollectionNotifications, notifications); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotifications returns a user's notifications newest first
func (r *Repository) ListNotifications(userID string) []*types.Notification {
	notifications := r.loadNotifications()
	out := make([]*types.Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// UnreadCount returns how many of a user's notifications are unread
func (r *Repository) UnreadCount(userID string) int {
	count := 0
	for _, n := range r.loadNotifications() {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count
}

// MarkNotificationRead flags one notification as read
func (r *Repository) MarkNotificationRead(id string) error {
	notifications := r.loadNotifications()
	for _, n := range notifications {
		if n.ID != id {
			continue
		}
		if n.Read {
			return nil
		}
		n.Read = true
		return r.save(storage.CollectionNotifications, notifications)
	}
	return types.NewNotFoundError(types.ErrCodeNotFound, "notification not found: "+id)
}

// MarkAllNotificationsRead flags every notification of a user as read
func (r *Repository) MarkAllNotificationsRead(userID string) error {
	notifications := r.loadNotifications()
	changed := false
	for _, n := range notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return r.save(storage.CollectionNotifications, notifications)
}
