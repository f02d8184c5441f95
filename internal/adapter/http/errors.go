package http

import (
	"errors"
	"net/http"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/filter"
)

// requestError is a client mistake caught before reaching the view service.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps domain errors to status codes. Anything unrecognized is a 500
// and its message is not echoed to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	sharedobs.WriteJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

func classify(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, filter.ErrInvalidFilter):
		return http.StatusBadRequest, "invalid_filter"
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusServiceUnavailable, "data_unavailable"
	case errors.Is(err, domain.ErrGeocoderDisabled):
		return http.StatusNotImplemented, "geocoder_disabled"
	case errors.Is(err, domain.ErrPlaceNotFound):
		return http.StatusNotFound, "place_not_found"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
