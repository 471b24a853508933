package profile_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/features/profile"
	"github.com/dalemusser/mohallahub/internal/app/store/audit"
	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"github.com/dalemusser/mohallahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeActivity struct {
	events    []audit.Event
	lastLimit int64
}

func (f *fakeActivity) GetByUser(_ context.Context, _ primitive.ObjectID, limit int64) ([]audit.Event, error) {
	f.lastLimit = limit
	return f.events, nil
}

func newTestHandler(t *testing.T) (*profile.Handler, *testutil.MemUsers, *fakeActivity) {
	t.Helper()
	users := testutil.NewMemUsers()
	act := &fakeActivity{}
	// Pass nil for audit logger in tests (nil logger is a no-op)
	h := profile.NewHandler(users, act, nil, apierror.NewWriter(false, zap.NewNop()), zap.NewNop())
	return h, users, act
}

type profileResponse struct {
	Success bool        `json:"success"`
	User    models.User `json:"user"`
}

func TestServeProfile(t *testing.T) {
	h, users, _ := newTestHandler(t)
	u := users.Put(testutil.NewUser("9876543210", false, false))

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", nil, u))
	rec.AssertStatus(t, http.StatusOK)

	var resp profileResponse
	rec.DecodeJSON(t, &resp)
	if resp.User.ID != u.ID || resp.User.Phone != "9876543210" {
		t.Errorf("unexpected user %+v", resp.User)
	}
}

func TestServeProfile_Unauthenticated(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewRequest(http.MethodGet, "/profile"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleUpdate_SanitizesFields(t *testing.T) {
	h, users, _ := newTestHandler(t)
	u := users.Put(testutil.NewUser("9876543210", false, false))

	body := map[string]string{
		"name": "  Asha   <b>Rao</b> ",
		"bio":  `<script>alert(1)</script>Loves gardening & chai`,
	}
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedRequest(http.MethodPatch, "/profile", body, u))
	rec.AssertStatus(t, http.StatusOK)

	var resp profileResponse
	rec.DecodeJSON(t, &resp)
	if resp.User.Name != "Asha Rao" {
		t.Errorf("name: got %q", resp.User.Name)
	}
	if resp.User.Bio != "Loves gardening & chai" {
		t.Errorf("bio: got %q", resp.User.Bio)
	}

	stored, _ := users.GetByID(context.Background(), u.ID)
	if stored.Name != "Asha Rao" {
		t.Errorf("stored name: got %q", stored.Name)
	}
}

func TestHandleUpdate_PartialLeavesOtherField(t *testing.T) {
	h, users, _ := newTestHandler(t)
	seed := testutil.NewUser("9876543210", true, false)
	seed.Bio = "existing bio"
	u := users.Put(seed)

	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedRequest(http.MethodPatch, "/profile", map[string]string{"name": "Ravi"}, u))
	rec.AssertStatus(t, http.StatusOK)

	stored, _ := users.GetByID(context.Background(), u.ID)
	if stored.Name != "Ravi" || stored.Bio != "existing bio" {
		t.Errorf("unexpected stored profile %q / %q", stored.Name, stored.Bio)
	}
}

func TestHandleUpdate_Validation(t *testing.T) {
	h, users, _ := newTestHandler(t)
	u := users.Put(testutil.NewUser("9876543210", true, false))

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"empty body", map[string]string{}, "body"},
		{"blank name", map[string]string{"name": "  <i></i> "}, "name"},
		{"long bio", map[string]string{"bio": string(long)}, "bio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleUpdate(rec, testutil.NewAuthenticatedRequest(http.MethodPatch, "/profile", tt.body, u))
			rec.AssertStatus(t, http.StatusBadRequest)

			var b testutil.ErrorBody
			rec.DecodeJSON(t, &b)
			if b.Fields[tt.field] == "" {
				t.Errorf("expected error on %q, got %v", tt.field, b.Fields)
			}
		})
	}
}

func TestServeActivity(t *testing.T) {
	h, users, act := newTestHandler(t)
	u := users.Put(testutil.NewUser("9876543210", true, false))
	act.events = []audit.Event{
		{Timestamp: time.Now(), Category: audit.CategoryAuth, EventType: audit.EventOTPVerified, Success: true},
	}

	rec := testutil.NewRecorder()
	h.ServeActivity(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile/activity?limit=500", nil, u))
	rec.AssertStatus(t, http.StatusOK)
	if act.lastLimit != 100 {
		t.Errorf("limit should be capped at 100, got %d", act.lastLimit)
	}

	var resp struct {
		Events []audit.Event `json:"events"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.Events) != 1 || resp.Events[0].EventType != audit.EventOTPVerified {
		t.Errorf("unexpected events %+v", resp.Events)
	}

	rec = testutil.NewRecorder()
	h.ServeActivity(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile/activity?limit=x", nil, u))
	rec.AssertStatus(t, http.StatusBadRequest)
}
