package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"go.uber.org/zap"
)

type errorResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "insufficient_stock", "conflict":
		return http.StatusConflict
	case "forbidden":
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a domain error onto the JSON error body. Internal errors
// are logged and their text is not sent to the client.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := market.Kind(err)
	code := statusFor(kind)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, code, errorResp{Error: msg, Code: kind})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return market.Invalid("body", "is not valid json: "+err.Error())
	}
	return nil
}
