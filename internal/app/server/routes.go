package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"allowcast/internal/auth"

	"github.com/charmbracelet/log"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func OpenRoutes(port int) error {
	router := http.NewServeMux()

	router.HandleFunc("POST /register-user", registerUser)
	router.HandleFunc("POST /login", loginUser)
	router.Handle("GET /checkLogin", auth.RequireAuth(http.HandlerFunc(checkLogin)))
	router.Handle("POST /changePassword", auth.RequireAuth(http.HandlerFunc(changePassword)))
	router.Handle("POST /saveSettings", auth.IsAdmin(http.HandlerFunc(saveSettings)))

	router.Handle("POST /register", auth.RequireAuth(http.HandlerFunc(registerAddress)))
	router.Handle("GET /records", auth.RequireAuth(http.HandlerFunc(getRecords)))
	router.Handle("DELETE /records", auth.RequireAuth(http.HandlerFunc(deactivateRecords)))

	router.Handle("POST /generate", auth.RequireAuth(http.HandlerFunc(generateCandidates)))
	router.Handle("GET /currentIp", auth.RequireAuth(http.HandlerFunc(getCurrentIp)))
	router.Handle("GET /getDashboardInfo", auth.RequireAuth(http.HandlerFunc(getDashboardInfo)))

	addr := fmt.Sprintf(":%d", port)
	log.Infof("Starting API server on %s", addr)
	return http.ListenAndServe(addr, enableCORS(router))
}
