package apierror

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
	"go.uber.org/zap"
)

type localized struct {
	Locale  string `json:"locale"`
	Message string `json:"message"`
}

type body struct {
	Success   bool              `json:"success"`
	Status    int               `json:"status"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Localized localized         `json:"localized"`
	Fields    map[string]string `json:"fields,omitempty"`
	Debug     string            `json:"debug,omitempty"`
}

// Writer renders errors as JSON. Debug adds the underlying error string to
// the body and must only be set in dev.
type Writer struct {
	Debug bool
	Log   *zap.Logger
}

// NewWriter constructs a Writer.
func NewWriter(debug bool, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{Debug: debug, Log: logger}
}

// Write sends err as a JSON error response.
func (wr *Writer) Write(w http.ResponseWriter, r *http.Request, err error) {
	ae := From(err)
	status := ae.Status()

	if status >= http.StatusInternalServerError {
		wr.Log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", ae.Code),
			zap.Error(ae.Err))
	}

	tag := i18n.SecondaryTag(r)
	b := body{
		Success: false,
		Status:  status,
		Code:    ae.Code,
		Message: i18n.Message(i18n.English, ae.Code),
		Localized: localized{
			Locale:  tag.String(),
			Message: i18n.Message(tag, ae.Code),
		},
		Fields: ae.Fields,
	}
	if wr.Debug && ae.Err != nil {
		b.Debug = ae.Err.Error()
	}
	if ae.RetryAfter > 0 {
		secs := int(ae.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	JSON(w, status, b)
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
