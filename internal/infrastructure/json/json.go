package json

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1 << 20

// Read decodes a JSON request body into dst, rejecting unknown fields
// and oversized bodies.
func Read(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// Write serializes v as the JSON response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
