// internal/app/features/profile/handler.go
package profile

import (
	"context"

	"github.com/dalemusser/mohallahub/internal/app/store/audit"
	userstore "github.com/dalemusser/mohallahub/internal/app/store/users"
	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/auditlog"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Users is the user store surface the profile needs.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate) (*models.User, error)
}

// Activity lists a user's audit trail.
type Activity interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]audit.Event, error)
}

// Handler owns all user profile handlers.
type Handler struct {
	Users    Users
	Activity Activity
	AuditLog *auditlog.Logger
	Errors   *apierror.Writer
	Log      *zap.Logger
}

// NewHandler constructs a profile Handler.
func NewHandler(users Users, activity Activity, auditLog *auditlog.Logger, errs *apierror.Writer, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		Activity: activity,
		AuditLog: auditLog,
		Errors:   errs,
		Log:      logger,
	}
}
