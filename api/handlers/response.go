package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mgmu/hortus-tracker/internal/messages"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func ok[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusOK, messages.Response[T]{Data: data})
}

func created[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusCreated, messages.Response[T]{Data: data})
}

func fail(w http.ResponseWriter, status int, errors ...string) {
	writeJSON(w, status, messages.ErrorResponse{Errors: errors})
}

func notFound(w http.ResponseWriter) {
	fail(w, http.StatusNotFound, "Not found")
}

func notAllowed(w http.ResponseWriter) {
	fail(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// Cors allows browser clients on any origin and answers preflight requests.
func Cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
