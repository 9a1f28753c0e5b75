package server

import (
	"encoding/json"
	"net/http"

	"allowcast/internal/api/dto"
	"allowcast/internal/config"
	"allowcast/internal/suggest"

	"github.com/charmbracelet/log"
)

func generateCandidates(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	targetCount := req.TargetCount
	if targetCount <= 0 {
		targetCount = config.GetConfig().Suggestion.DefaultTargetCount
	}
	if targetCount <= 0 {
		targetCount = 100
	}

	addresses, err := suggest.DefaultEngine.GenerateCandidates(targetCount)
	if err != nil {
		log.Error("Failed to generate candidates", "error", err)
		writeError(w, "Storage unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, dto.GenerateResponse{
		Addresses: addresses,
		Count:     len(addresses),
	})
}

func getCurrentIp(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"current_ip": config.GetCurrentIp()})
}
