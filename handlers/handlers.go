package handlers

import (
	"encoding/json"
	"net/http"

	"tandem-server/middleware"
	"tandem-server/utils/errors"
)

type messageResponse struct {
	Message string `json:"message"`
}

// callerID returns the authenticated account, writing a 401 when there is none.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
	}
	return id, ok
}

// decodeJSON reads a JSON body into dst, writing a 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteError(w, errors.Wrap(err, errors.ErrInvalidInput.Code, "Malformed JSON body", http.StatusBadRequest))
		return false
	}
	return true
}
