package server

import (
	"net/http"

	"allowcast/internal/api/dto"
	"allowcast/internal/config"
	"allowcast/internal/database"
	jobruntime "allowcast/internal/jobs/runtime"
	"allowcast/internal/support"

	"github.com/charmbracelet/log"
)

func getDashboardInfo(w http.ResponseWriter, r *http.Request) {
	tracked, err := database.CountActiveRecords(true)
	if err != nil {
		log.Error("Failed to count tracked records", "error", err)
		writeError(w, "Storage unavailable", http.StatusServiceUnavailable)
		return
	}

	perSource, err := database.CountActiveByProvenance()
	if err != nil {
		log.Error("Failed to count records per provenance", "error", err)
		writeError(w, "Storage unavailable", http.StatusServiceUnavailable)
		return
	}

	activePerSource := make(map[string]int64, len(perSource))
	for prov, count := range perSource {
		activePerSource[string(prov)] = count
	}

	instances := 0
	if client, err := support.GetRedisClient(); err == nil {
		if count, err := jobruntime.CountActiveInstances(r.Context(), client); err == nil {
			instances = count
		}
	}

	writeJSON(w, http.StatusOK, dto.DashboardInfo{
		CurrentAddress:  config.GetCurrentIp(),
		TrackedActive:   tracked,
		TrackedCapacity: config.GetConfig().MaxTracked(),
		ActivePerSource: activePerSource,
		ActiveInstances: instances,
	})
}
