package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"visleg/internal/platform/metrics"
	"visleg/pkg/requestcontext"
)

// Recorder writes audit entries best-effort. A failed write is logged and
// counted, never propagated: auditing must not block the primary operation.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRecorder(store Store, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, logger: logger, metrics: m}
}

// Record appends one audit entry, filling IP, User-Agent and timestamp from
// the request context. details is serialized as JSON; nil means no details.
func (r *Recorder) Record(ctx context.Context, actorID uuid.UUID, action, entityType, entityID, entityName string, details any) {
	entry := &Entry{
		ID:         uuid.New(),
		UserID:     &actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		EntityName: entityName,
		IPAddress:  requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
		CreatedAt:  requestcontext.Now(ctx),
	}

	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			r.logger.WarnContext(ctx, "failed to marshal audit details",
				"request_id", requestcontext.RequestID(ctx),
				"action", action,
				"error", err.Error(),
			)
		} else {
			entry.Details = string(payload)
		}
	}

	if err := r.store.Append(ctx, entry); err != nil {
		r.metrics.IncrementAuditFailure()
		r.logger.ErrorContext(ctx, "failed to write audit log",
			"request_id", requestcontext.RequestID(ctx),
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err.Error(),
		)
	}
}

// ListRecent exposes the trail for the admin surface.
func (r *Recorder) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	return r.store.ListRecent(ctx, limit)
}
