package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/mohallahub/internal/app/system/auth"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResidentUser returns a fully verified user living in neighborhoodID.
func ResidentUser(neighborhoodID primitive.ObjectID) models.User {
	u := NewUser("9876543210", true, true)
	u.NeighborhoodID = &neighborhoodID
	u.Address = &models.Address{
		FullAddress: "80 Feet Road",
		PostalCode:  "560034",
		City:        "Bengaluru",
		State:       "Karnataka",
	}
	return u
}

// AdminUser returns a phone-verified admin.
func AdminUser() models.User {
	u := NewUser("9123456780", true, false)
	u.Role = models.RoleAdmin
	return u
}

// WithUser adds u to the request context for testing authenticated handlers.
// This bypasses the guard and injects the user directly.
func WithUser(r *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(r, &u)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request with v encoded as its JSON body.
// A string v is sent verbatim.
func NewJSONRequest(method, target string, v any) *http.Request {
	var body io.Reader
	switch b := v.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
	default:
		buf, _ := json.Marshal(b)
		body = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates a JSON request with u in context.
func NewAuthenticatedRequest(method, target string, v any, u models.User) *http.Request {
	return WithUser(NewJSONRequest(method, target, v), u)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t interface {
	Fatalf(string, ...any)
}, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body %q: %v", r.Body.String(), err)
	}
}

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Success   bool              `json:"success"`
	Status    int               `json:"status"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Localized struct {
		Locale  string `json:"locale"`
		Message string `json:"message"`
	} `json:"localized"`
	Fields map[string]string `json:"fields"`
	Debug  string            `json:"debug"`
}

// ErrorCode decodes an error response and returns its code.
func (r *ResponseRecorder) ErrorCode(t interface {
	Fatalf(string, ...any)
}) string {
	var b ErrorBody
	r.DecodeJSON(t, &b)
	return b.Code
}
