package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"visleg/internal/admin/models"
	"visleg/pkg/platform/sentinel"
)

type SessionStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *SessionStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) newSession(token string, ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{
		Token:     token,
		UserID:    uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *SessionStoreSuite) TestCreateAndFind() {
	session := s.newSession("tok-1", time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, session))

	found, err := s.store.Find(s.ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal(session.UserID, found.UserID)
}

func (s *SessionStoreSuite) TestFindUnknownToken() {
	_, err := s.store.Find(s.ctx, "missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SessionStoreSuite) TestDelete() {
	s.Require().NoError(s.store.Create(s.ctx, s.newSession("tok-2", time.Hour)))
	s.Require().NoError(s.store.Delete(s.ctx, "tok-2"))

	_, err := s.store.Find(s.ctx, "tok-2")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SessionStoreSuite) TestDeleteExpiredSweepsOnlyStale() {
	s.Require().NoError(s.store.Create(s.ctx, s.newSession("fresh", time.Hour)))
	s.Require().NoError(s.store.Create(s.ctx, s.newSession("stale", -time.Minute)))

	removed, err := s.store.DeleteExpired(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.Find(s.ctx, "stale")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Find(s.ctx, "fresh")
	s.Require().NoError(err)
}
