package errors_test

import (
	"net/http"
	"testing"

	errorsfeature "github.com/dalemusser/mohallahub/internal/app/features/errors"
	"github.com/dalemusser/mohallahub/internal/app/system/apierror"
	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"github.com/dalemusser/mohallahub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter() http.Handler {
	h := errorsfeature.NewHandler(apierror.NewWriter(false, zap.NewNop()), zap.NewNop())
	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	r.Get("/known", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}

func TestNotFound(t *testing.T) {
	rec := testutil.NewRecorder()
	newRouter().ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/missing"))

	rec.AssertStatus(t, http.StatusNotFound)
	if code := rec.ErrorCode(t); code != i18n.KeyNotFound {
		t.Errorf("code: got %q", code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := testutil.NewRecorder()
	newRouter().ServeHTTP(rec, testutil.NewRequest(http.MethodDelete, "/known"))

	rec.AssertStatus(t, http.StatusMethodNotAllowed)
	if code := rec.ErrorCode(t); code != i18n.KeyMethodNotAllowed {
		t.Errorf("code: got %q", code)
	}
}

func TestNotFound_Localized(t *testing.T) {
	req := testutil.NewRequest(http.MethodGet, "/missing")
	req.Header.Set("Accept-Language", "hi-IN")
	rec := testutil.NewRecorder()
	newRouter().ServeHTTP(rec, req)

	var b testutil.ErrorBody
	rec.DecodeJSON(t, &b)
	if b.Localized.Locale != "hi" || b.Localized.Message != i18n.Message(i18n.Hindi, i18n.KeyNotFound) {
		t.Errorf("unexpected localized body %+v", b.Localized)
	}
}
