package api

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

// json is the encoder used for every HTTP and WebSocket payload.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error is the body of every non-2xx response.
type Error struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Machine-readable values of Error.Code.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeInternal       = "internal_error"
)

var errorCodes = map[int]string{
	http.StatusBadRequest:       ErrCodeBadRequest,
	http.StatusNotFound:         ErrCodeNotFound,
	http.StatusMethodNotAllowed: ErrCodeMethodNotAllow,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // client may already be gone
	json.NewEncoder(w).Encode(v)
}

// writeError answers r with an Error body. Statuses without a dedicated
// code are reported as internal errors.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	code, ok := errorCodes[status]
	if !ok {
		code = ErrCodeInternal
	}
	writeJSON(w, status, Error{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestID(r),
	})
}
