// internal/app/features/neighborhoods/handler.go
package neighborhoods

import (
	"context"

	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/auditlog"
	"github.com/dalemusser/mohallahub/internal/app/system/events"
	"github.com/dalemusser/mohallahub/internal/app/system/metrics"
	"github.com/dalemusser/mohallahub/internal/app/system/neighborhood"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the read side of the neighborhood store.
type Store interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Neighborhood, error)
	GetBySlug(ctx context.Context, slug string) (*models.Neighborhood, error)
	FindByGeohashPrefix(ctx context.Context, prefix string, limit int64) ([]models.Neighborhood, error)
}

// Handler owns the neighborhood endpoints.
type Handler struct {
	Store    Store
	Resolver *neighborhood.Resolver
	Events   events.Publisher
	AuditLog *auditlog.Logger
	Metrics  *metrics.Metrics
	Errors   *apierror.Writer
	Log      *zap.Logger
}

// NewHandler constructs a neighborhoods Handler.
func NewHandler(store Store, resolver *neighborhood.Resolver, pub events.Publisher, auditLog *auditlog.Logger, m *metrics.Metrics, errs *apierror.Writer, logger *zap.Logger) *Handler {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Handler{
		Store:    store,
		Resolver: resolver,
		Events:   pub,
		AuditLog: auditLog,
		Metrics:  m,
		Errors:   errs,
		Log:      logger,
	}
}

type neighborhoodResponse struct {
	Success      bool                `json:"success"`
	Neighborhood models.Neighborhood `json:"neighborhood"`
}

func (h *Handler) publish(ctx context.Context, e events.Event) {
	if err := h.Events.Publish(ctx, e); err != nil {
		h.Log.Warn("event publish failed", zap.String("type", e.Type), zap.Error(err))
	}
}
