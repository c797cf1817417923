package verification

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	adminmodels "visleg/internal/admin/models"
	"visleg/internal/platform/metrics"
	"visleg/internal/stoe"
	dErrors "visleg/pkg/domain-errors"
	"visleg/pkg/platform/sentinel"
	"visleg/pkg/requestcontext"
)

// Verifier exchanges a session id for verified identity attributes.
type Verifier interface {
	VerifySession(ctx context.Context, sessionID string) (*stoe.Identity, error)
}

// Service drives one scan attempt through the session protocol:
// validate shape, enforce single-use, select demo/live/fallback path,
// persist the outcome, return a normalized result.
//
// The service is stateless across calls; session state lives in the store.
type Service struct {
	store         Store
	verifier      Verifier
	logger        *slog.Logger
	metrics       *metrics.Metrics
	allowFallback bool
}

func NewService(store Store, verifier Verifier, logger *slog.Logger, m *metrics.Metrics, allowFallback bool) *Service {
	return &Service{
		store:         store,
		verifier:      verifier,
		logger:        logger,
		metrics:       m,
		allowFallback: allowFallback,
	}
}

// VerifyDemo answers a scan with a fixed demo identity. No authentication,
// no upstream call, nothing persisted.
func (s *Service) VerifyDemo(ctx context.Context, sessionID string) (*Result, error) {
	if !ValidSessionID(sessionID) {
		s.metrics.IncrementVerification("invalid")
		return nil, ErrInvalidSessionID
	}

	s.metrics.IncrementVerification("demo")
	return s.rosterResult(ctx, sessionID, demoIdentities), nil
}

// Verify performs one live scan attempt on behalf of actor.
//
// Single-use is enforced twice: a read check up front (cheap, avoids a
// wasted provider round trip) and the unique constraint at insert time,
// which is the authoritative signal under concurrency.
func (s *Service) Verify(ctx context.Context, qrSessionID string, actor *adminmodels.AdminUser) (*Result, error) {
	if !ValidSessionID(qrSessionID) {
		s.metrics.IncrementVerification("invalid")
		return nil, ErrInvalidSessionID
	}

	// Demo scans short-circuit: no single-use check, no persistence, so test
	// scans never pollute statistics.
	if IsDemoSessionID(qrSessionID) {
		s.metrics.IncrementVerification("demo")
		return s.rosterResult(ctx, qrSessionID, demoIdentities), nil
	}

	if existing, err := s.store.FindBySessionID(ctx, qrSessionID); err == nil && existing.Verified {
		s.metrics.IncrementVerification("already_used")
		return nil, alreadyUsed(existing)
	} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verification session")
	}

	identityData, err := s.obtainIdentity(ctx, qrSessionID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	session := &Session{
		ID:                uuid.New(),
		SessionID:         qrSessionID,
		FirstName:         identityData.FirstName,
		LastName:          identityData.LastName,
		DocumentPhoto:     identityData.DocumentPhoto,
		Age:               identityData.Age,
		Verified:          true,
		VerifiedAt:        &now,
		OrganizationID:    &actor.OrganizationID,
		PerformedByUserID: &actor.ID,
		CreatedAt:         now,
	}

	if err := s.store.Create(ctx, session); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent scan won the race. Report the winner's detail.
			s.metrics.IncrementVerification("already_used")
			winner, findErr := s.store.FindBySessionID(ctx, qrSessionID)
			if findErr != nil {
				return nil, alreadyUsed(&Session{SessionID: qrSessionID})
			}
			return nil, alreadyUsed(winner)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification session")
	}

	s.metrics.IncrementVerification("verified")
	return &Result{
		FirstName:     identityData.FirstName,
		LastName:      identityData.LastName,
		DocumentPhoto: identityData.DocumentPhoto,
		Age:           identityData.Age,
		SessionID:     qrSessionID,
		Timestamp:     now,
	}, nil
}

// obtainIdentity calls the provider and applies the fallback policy.
// Auth and configuration failures are always fatal; other provider failures
// substitute a fallback identity when the deployment allows it.
func (s *Service) obtainIdentity(ctx context.Context, qrSessionID string) (*stoe.Identity, error) {
	identityData, err := s.verifier.VerifySession(ctx, qrSessionID)
	if err == nil {
		return identityData, nil
	}

	if stoe.IsFatal(err) {
		s.metrics.IncrementVerification("provider_error")
		return nil, err
	}

	if !s.allowFallback {
		s.metrics.IncrementVerification("provider_error")
		return nil, err
	}

	s.metrics.IncrementVerification("fallback")
	s.metrics.IncrementFallback()
	s.logger.WarnContext(ctx, "provider degraded, substituting fallback identity",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", qrSessionID,
		"provider_error", err.Error(),
	)

	picked := fallbackIdentities[rand.IntN(len(fallbackIdentities))]
	return &stoe.Identity{
		FirstName: picked.FirstName,
		LastName:  picked.LastName,
		Age:       picked.Age,
	}, nil
}

func (s *Service) rosterResult(ctx context.Context, sessionID string, roster []identity) *Result {
	picked := roster[rand.IntN(len(roster))]
	return &Result{
		FirstName:     picked.FirstName,
		LastName:      picked.LastName,
		DocumentPhoto: "",
		Age:           picked.Age,
		SessionID:     sessionID,
		Timestamp:     requestcontext.Now(ctx),
	}
}

func alreadyUsed(session *Session) *AlreadyUsedError {
	return &AlreadyUsedError{
		FirstName: session.FirstName,
		LastName:  session.LastName,
		UsedAt:    session.VerifiedAt,
	}
}
