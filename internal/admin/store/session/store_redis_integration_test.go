//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"visleg/internal/admin/models"
	"visleg/internal/admin/store/session"
	"visleg/pkg/platform/sentinel"
	"visleg/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func newSession(ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{
		Token:     uuid.NewString(),
		UserID:    uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *RedisStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	sess := newSession(time.Hour)

	s.Require().NoError(s.store.Create(ctx, sess))

	found, err := s.store.Find(ctx, sess.Token)
	s.Require().NoError(err)
	s.Equal(sess.UserID, found.UserID)
	s.WithinDuration(sess.ExpiresAt, found.ExpiresAt, time.Second)
}

func (s *RedisStoreSuite) TestFindUnknown() {
	_, err := s.store.Find(context.Background(), "unknown-token")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDelete() {
	ctx := context.Background()
	sess := newSession(time.Hour)
	s.Require().NoError(s.store.Create(ctx, sess))

	s.Require().NoError(s.store.Delete(ctx, sess.Token))
	_, err := s.store.Find(ctx, sess.Token)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestExpiryByTTL() {
	ctx := context.Background()
	sess := newSession(time.Second)
	s.Require().NoError(s.store.Create(ctx, sess))

	time.Sleep(1500 * time.Millisecond)

	_, err := s.store.Find(ctx, sess.Token)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestCreateAlreadyExpired() {
	err := s.store.Create(context.Background(), newSession(-time.Minute))
	s.ErrorIs(err, sentinel.ErrExpired)
}
