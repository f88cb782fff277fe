package httpx

import (
	"encoding/json"
	"net/http"
)

// DetailPayload is the body shape for acknowledgements and errors.
type DetailPayload struct {
	Detail string `json:"detail"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Detail sends a {detail: message} response.
func Detail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, DetailPayload{Detail: message})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
