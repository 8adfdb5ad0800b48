package identity

import (
	"errors"
	"fmt"
	"net/http"

	xhttp "FinDash/pkg/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnauthorized matches 401 and 403 responses.
	ErrUnauthorized = errors.New("identity: unauthorized")
	// ErrConflict matches 409 responses, e.g. a duplicate profile row.
	ErrConflict = errors.New("identity: conflict")
)

// APIError is a non-2xx answer from the identity backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// Rejected reports whether the backend refused the request itself as opposed
// to failing to serve it. Throttling and timeouts (429, 408) are not refusals.
func (e *APIError) Rejected() bool {
	switch e.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// IsRejected reports whether err is an APIError the backend answered as a refusal.
func IsRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Rejected()
}

// messageKeys are checked in order; GoTrue and PostgREST disagree on the field name.
var messageKeys = []string{"msg", "error_description", "message", "error"}

func toAPIError(op string, err error) error {
	var se *xhttp.StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("%s: %w", op, err)
	}

	apiErr := &APIError{Status: se.StatusCode, Message: http.StatusText(se.StatusCode)}
	if gjson.ValidBytes(se.Body) {
		doc := gjson.ParseBytes(se.Body)
		for _, key := range messageKeys {
			if v := doc.Get(key); v.Exists() && v.Type == gjson.String && v.String() != "" {
				apiErr.Message = v.String()
				break
			}
		}
		if code := doc.Get("code"); code.Exists() {
			apiErr.Code = code.String()
		} else if code := doc.Get("error_code"); code.Exists() {
			apiErr.Code = code.String()
		}
	}
	return apiErr
}
