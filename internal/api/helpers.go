package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
)

// MaxRequestBodyBytes caps request bodies at 256 KiB. Plans can be long but
// nothing legitimate approaches this.
const MaxRequestBodyBytes = 256 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON enforces the request-body ladder: 415 for a non-JSON content
// type, 413 past the size cap, 400 for malformed JSON. It writes the error
// response itself; handlers just return on a non-nil error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return errors.New("unsupported media type")
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return err
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return err
	}
	return nil
}
