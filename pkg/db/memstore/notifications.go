package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

func (s *Store) InsertNotifications(ctx context.Context, notifications []model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertNotifications"); err != nil {
		return err
	}
	for _, n := range notifications {
		if _, ok := s.notifications[n.ID]; ok {
			return fmt.Errorf("notification %s: %w", n.ID, db.ErrDuplicate)
		}
	}
	for _, n := range notifications {
		s.notifications[n.ID] = n
	}
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetNotification"); err != nil {
		return nil, err
	}
	n, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification %s: %w", id, db.ErrNotFound)
	}
	return &n, nil
}

// ListNotifications returns the recipient's notifications, newest first
func (s *Store) ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListNotifications"); err != nil {
		return nil, err
	}
	var result []model.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("MarkNotificationRead"); err != nil {
		return err
	}
	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, db.ErrNotFound)
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteNotification"); err != nil {
		return err
	}
	if _, ok := s.notifications[id]; !ok {
		return fmt.Errorf("notification %s: %w", id, db.ErrNotFound)
	}
	delete(s.notifications, id)
	return nil
}
