package apierror

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
)

// MaxBodyBytes bounds request bodies read by DecodeJSON.
const MaxBodyBytes = 64 << 10

// DecodeJSON reads the request body into v. A Content-Type other than
// application/json (or a +json type) yields UnsupportedMediaType; malformed
// or oversized bodies yield a Validation error on the "body" field.
func DecodeJSON(r *http.Request, v any) error {
	if !isJSON(r.Header.Get("Content-Type")) {
		return UnsupportedMediaType()
	}
	if r.Body == nil {
		return bodyError(io.EOF)
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) *Error {
	e := Validation(i18n.KeyValidationFailed, map[string]string{"body": "must be a JSON object"})
	e.Err = err
	return e
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
