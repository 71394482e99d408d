package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as the response body with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// NoContent answers 204 with an empty body.
func NoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	ErrorWithDetails(w, r, code, message, nil)
}

// ErrorWithDetails writes {"error": message} merged with details. The
// "error" key always carries message.
func ErrorWithDetails(w http.ResponseWriter, r *http.Request, code int, message string, details map[string]interface{}) {
	body := make(map[string]interface{}, len(details)+1)
	for k, v := range details {
		body[k] = v
	}
	body["error"] = message
	JSON(w, r, code, body)
}
