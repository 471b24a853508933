// internal/app/features/neighborhoods/verify.go
package neighborhoods

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/dalemusser/mohallahub/internal/app/system/events"
	"github.com/dalemusser/mohallahub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"github.com/dalemusser/mohallahub/internal/app/system/inputval"
	"github.com/dalemusser/mohallahub/internal/app/system/neighborhood"
	"github.com/dalemusser/mohallahub/internal/app/system/normalize"
	"github.com/dalemusser/mohallahub/internal/app/system/timeouts"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"go.uber.org/zap"
)

type verifyAddressRequest struct {
	FullAddress string              `json:"full_address"`
	PostalCode  string              `json:"postal_code"`
	City        string              `json:"city"`
	State       string              `json:"state"`
	Coordinates *models.Coordinates `json:"coordinates"`
}

type verifyAddressResponse struct {
	Success             bool                `json:"success"`
	User                *models.User        `json:"user"`
	Neighborhood        models.Neighborhood `json:"neighborhood"`
	NeighborhoodCreated bool                `json:"neighborhood_created"`
}

// parseAddress sanitizes and validates the request body.
func parseAddress(req verifyAddressRequest) (neighborhood.AddressInput, error) {
	in := neighborhood.AddressInput{
		FullAddress: normalize.Name(htmlsanitize.PlainText(req.FullAddress)),
		PostalCode:  normalize.PostalCode(req.PostalCode),
		City:        normalize.Name(htmlsanitize.PlainText(req.City)),
		State:       normalize.Name(htmlsanitize.PlainText(req.State)),
	}

	errs := inputval.Errors{}
	if errs.Required("full_address", in.FullAddress) {
		errs.MaxLen("full_address", in.FullAddress, inputval.MaxAddressLen)
	}
	if errs.Required("city", in.City) {
		errs.MaxLen("city", in.City, inputval.MaxCityLen)
	}
	if errs.Required("state", in.State) {
		errs.MaxLen("state", in.State, inputval.MaxCityLen)
	}
	postalOK := inputval.IsValidPostalCode(in.PostalCode)
	if !postalOK {
		errs.Add("postal_code", "must be a 6-digit PIN code")
	}
	if c := req.Coordinates; c != nil {
		if !inputval.IsValidCoordinates(c.Lat, c.Lng) {
			errs.Add("coordinates", "lat must be within ±90 and lng within ±180")
		} else {
			in.Coordinates = &models.Coordinates{Lat: c.Lat, Lng: c.Lng}
		}
	}

	if errs.Any() {
		code := ""
		if !postalOK && len(errs) == 1 {
			code = i18n.KeyInvalidPostalCode
		}
		return neighborhood.AddressInput{}, apierror.Validation(code, errs)
	}
	return in, nil
}

// HandleVerifyAddress handles POST /neighborhoods/verify-address. The caller
// joins the neighborhood for the postal code, which is created on first use.
func (h *Handler) HandleVerifyAddress(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.Errors.Write(w, r, apierror.Unauthorized("", nil))
		return
	}

	var req verifyAddressRequest
	if err := apierror.DecodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	in, err := parseAddress(req)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "verify address")
	defer cancel()

	updated, nb, created, err := h.Resolver.VerifyAddress(ctx, u, in)
	switch {
	case err == nil:
	case errors.Is(err, neighborhood.ErrConflict):
		h.Errors.Write(w, r, apierror.Conflict(i18n.KeyNeighborhoodConflict, err))
		return
	case errors.Is(err, neighborhood.ErrUserNotFound):
		h.Errors.Write(w, r, apierror.Unauthorized(i18n.KeyUnauthorized, err))
		return
	default:
		h.Errors.Write(w, r, apierror.Internal(err))
		return
	}

	h.Log.Info("address verified",
		zap.String("user_id", updated.ID.Hex()),
		zap.String("neighborhood_id", nb.ID.Hex()),
		zap.Bool("neighborhood_created", created))

	now := time.Now().UTC()
	if created {
		h.AuditLog.NeighborhoodCreated(ctx, r, updated.ID, nb.ID, nb.Name, nb.Geohash)
		h.publish(ctx, events.Event{
			Type:           events.NeighborhoodCreated,
			OccurredAt:     now,
			UserID:         updated.ID.Hex(),
			NeighborhoodID: nb.ID.Hex(),
			Data:           map[string]string{"name": nb.Name, "postal_code": nb.PostalCode, "geohash": nb.Geohash},
		})
	}
	h.AuditLog.AddressVerified(ctx, r, updated.ID, nb.ID, nb.PostalCode)
	h.publish(ctx, events.Event{
		Type:           events.UserAddressVerified,
		OccurredAt:     now,
		UserID:         updated.ID.Hex(),
		NeighborhoodID: nb.ID.Hex(),
		Data:           map[string]string{"verification_level": updated.VerificationLevel},
	})
	if h.Metrics != nil {
		h.Metrics.AddressVerified.Inc()
		if created {
			h.Metrics.NeighborhoodsCreated.Inc()
		}
	}

	apierror.JSON(w, http.StatusOK, verifyAddressResponse{
		Success:             true,
		User:                updated,
		Neighborhood:        nb,
		NeighborhoodCreated: created,
	})
}
