package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func writeJSONError(w http.ResponseWriter, status int, detail, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(errorBody{Detail: detail, Code: code})
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
