// internal/app/features/neighborhoods/neighborhoods.go
package neighborhoods

import (
	"errors"
	"math"
	"net/http"
	"sort"
	"strconv"

	neighborhoodstore "github.com/dalemusser/mohallahub/internal/app/store/neighborhoods"
	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/dalemusser/mohallahub/internal/app/system/geo"
	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"github.com/dalemusser/mohallahub/internal/app/system/inputval"
	"github.com/dalemusser/mohallahub/internal/app/system/neighborhood"
	"github.com/dalemusser/mohallahub/internal/app/system/timeouts"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// defaultNearbyPrecision gives cells of roughly 5km x 5km.
	defaultNearbyPrecision = 5
	maxNearbyResults       = 50
)

func (h *Handler) writeLookup(w http.ResponseWriter, r *http.Request, nb *models.Neighborhood, err error) {
	if err != nil {
		if errors.Is(err, neighborhoodstore.ErrNotFound) {
			h.Errors.Write(w, r, apierror.NotFound(i18n.KeyNeighborhoodNotFound))
			return
		}
		h.Errors.Write(w, r, apierror.Internal(err))
		return
	}
	apierror.JSON(w, http.StatusOK, neighborhoodResponse{Success: true, Neighborhood: *nb})
}

// ServeMine handles GET /neighborhoods/mine.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.Errors.Write(w, r, apierror.Unauthorized("", nil))
		return
	}
	if u.NeighborhoodID == nil {
		h.Errors.Write(w, r, apierror.Forbidden(i18n.KeyAddressNotVerified))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get my neighborhood")
	defer cancel()

	nb, err := h.Store.GetByID(ctx, *u.NeighborhoodID)
	h.writeLookup(w, r, nb, err)
}

// ServeByID handles GET /neighborhoods/{id}.
func (h *Handler) ServeByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Errors.Write(w, r, apierror.NotFound(i18n.KeyNeighborhoodNotFound))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get neighborhood")
	defer cancel()

	nb, err := h.Store.GetByID(ctx, id)
	h.writeLookup(w, r, nb, err)
}

// ServeBySlug handles GET /neighborhoods/slug/{slug}.
func (h *Handler) ServeBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get neighborhood by slug")
	defer cancel()

	nb, err := h.Store.GetBySlug(ctx, slug)
	h.writeLookup(w, r, nb, err)
}

type nearbyItem struct {
	Neighborhood models.Neighborhood `json:"neighborhood"`
	DistanceKm   float64             `json:"distance_km"`
}

type nearbyResponse struct {
	Success       bool         `json:"success"`
	Geohash       string       `json:"geohash"`
	Neighborhoods []nearbyItem `json:"neighborhoods"`
}

// ServeNearby handles GET /neighborhoods/nearby?lat=&lng=&precision=.
// Neighborhoods sharing the point's geohash prefix are returned nearest
// first.
func (h *Handler) ServeNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	errs := inputval.Errors{}

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		errs.Add("lat", "must be a number")
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		errs.Add("lng", "must be a number")
	}
	if !errs.Any() && !inputval.IsValidCoordinates(lat, lng) {
		errs.Add("coordinates", "lat must be within ±90 and lng within ±180")
	}
	precision := defaultNearbyPrecision
	if s := q.Get("precision"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil || p < 1 || p > geo.DefaultPrecision {
			errs.Add("precision", "must be between 1 and "+strconv.Itoa(geo.DefaultPrecision))
		}
		precision = p
	}
	if errs.Any() {
		h.Errors.Write(w, r, apierror.Validation("", errs))
		return
	}

	prefix := geo.Encode(lat, lng, precision)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "nearby neighborhoods")
	defer cancel()

	found, err := h.Store.FindByGeohashPrefix(ctx, prefix, maxNearbyResults)
	if err != nil {
		h.Errors.Write(w, r, apierror.Internal(err))
		return
	}

	origin := geo.Point{Lat: lat, Lng: lng}
	items := make([]nearbyItem, 0, len(found))
	for _, nb := range found {
		d := geo.HaversineKm(origin, geo.Point{Lat: nb.Coordinates.Lat, Lng: nb.Coordinates.Lng})
		items = append(items, nearbyItem{Neighborhood: nb, DistanceKm: math.Round(d*100) / 100})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].DistanceKm < items[j].DistanceKm })

	apierror.JSON(w, http.StatusOK, nearbyResponse{Success: true, Geohash: prefix, Neighborhoods: items})
}

type statsResponse struct {
	Success bool                     `json:"success"`
	Stats   models.NeighborhoodStats `json:"stats"`
}

// HandleRefreshStats handles POST /neighborhoods/{id}/stats/refresh.
func (h *Handler) HandleRefreshStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		h.Errors.Write(w, r, apierror.Unauthorized("", nil))
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.Errors.Write(w, r, apierror.NotFound(i18n.KeyNeighborhoodNotFound))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "refresh neighborhood stats")
	defer cancel()

	stats, err := h.Resolver.RecomputeStats(ctx, id)
	if err != nil {
		if errors.Is(err, neighborhood.ErrNotFound) {
			h.Errors.Write(w, r, apierror.NotFound(i18n.KeyNeighborhoodNotFound))
			return
		}
		h.Errors.Write(w, r, apierror.Internal(err))
		return
	}

	h.AuditLog.StatsRefreshed(ctx, r, actor.ID, id, actor.Role)
	if h.Metrics != nil {
		h.Metrics.StatsRefreshed.WithLabelValues("manual").Inc()
	}
	apierror.JSON(w, http.StatusOK, statsResponse{Success: true, Stats: stats})
}
