package main

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// sessionStore is the narrow persistence surface the reconciler needs.
// Writes are plain read-merge-write upserts; there is no row lock, the
// monotonic merge rule makes concurrent writers safe for score/maxStreak.
type sessionStore interface {
	// Get returns (nil, nil) when no record exists for the user.
	Get(ctx context.Context, userID string) (*GameSession, error)
	Put(ctx context.Context, s *GameSession) error
	// Profile returns the display name and avatar for a user, best-effort.
	Profile(ctx context.Context, userID string) (username string, avatarURL *string, err error)
}

type gormSessionStore struct {
	db *gorm.DB
}

func newSessionStore(db *gorm.DB) *gormSessionStore {
	return &gormSessionStore{db: db}
}

func (s *gormSessionStore) Get(ctx context.Context, userID string) (*GameSession, error) {
	var sess GameSession
	err := s.db.WithContext(ctx).First(&sess, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *gormSessionStore) Put(ctx context.Context, sess *GameSession) error {
	if sess.ID == 0 {
		return s.db.WithContext(ctx).Create(sess).Error
	}
	return s.db.WithContext(ctx).Save(sess).Error
}

func (s *gormSessionStore) Profile(ctx context.Context, userID string) (string, *string, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	return u.Username, u.AvatarURL, nil
}
