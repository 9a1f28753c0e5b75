package server

import (
	"encoding/json"
	"net/http"

	"allowcast/internal/api/dto"
	"allowcast/internal/database"
	"allowcast/internal/domain"
	"allowcast/internal/geo"
	"allowcast/internal/suggest"

	"github.com/charmbracelet/log"
)

func registerAddress(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	prov, ok := domain.ParseProvenance(req.Provenance)
	if !ok {
		writeError(w, "Unknown provenance", http.StatusBadRequest)
		return
	}

	result, err := database.RegisterAddress(req.Address, prov)
	if err != nil {
		log.Error("Failed to register address", "address", req.Address, "error", err)
		writeError(w, "Storage unavailable", http.StatusServiceUnavailable)
		return
	}

	suggest.DefaultEngine.Invalidate()

	status := http.StatusOK
	switch result {
	case database.RegisterCreated:
		status = http.StatusCreated
	case database.RegisterRejected:
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, dto.RegisterResponse{
		Address: req.Address,
		Result:  result.String(),
	})
}

func getRecords(w http.ResponseWriter, r *http.Request) {
	var provenances []domain.Provenance
	if raw := r.URL.Query().Get("provenance"); raw != "" {
		prov, ok := domain.ParseProvenance(raw)
		if !ok {
			writeError(w, "Unknown provenance", http.StatusBadRequest)
			return
		}
		provenances = append(provenances, prov)
	}

	records, err := database.GetActiveRecords(provenances...)
	if err != nil {
		log.Error("Failed to list records", "error", err)
		writeError(w, "Storage unavailable", http.StatusServiceUnavailable)
		return
	}

	infos := make([]dto.RecordInfo, 0, len(records))
	for _, record := range records {
		infos = append(infos, dto.RecordInfo{
			ID:         record.ID,
			Address:    record.Address,
			Provenance: string(record.Provenance),
			Country:    geo.Country(record.Address),
			Hostname:   geo.Hostname(record.Address),
			CreatedAt:  record.CreatedAt,
			UpdatedAt:  record.UpdatedAt,
		})
	}

	writeJSON(w, http.StatusOK, dto.RecordPage{
		Records: infos,
		Total:   int64(len(infos)),
	})
}

func deactivateRecords(w http.ResponseWriter, r *http.Request) {
	var req dto.DeactivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if len(req.IDs) == 0 {
		writeError(w, "No records selected", http.StatusBadRequest)
		return
	}

	changed, err := database.DeactivateRecords(req.IDs)
	if err != nil {
		log.Error("Failed to deactivate records", "error", err)
		writeError(w, "Storage unavailable", http.StatusServiceUnavailable)
		return
	}

	suggest.DefaultEngine.Invalidate()

	writeJSON(w, http.StatusOK, map[string]int64{"deactivated": changed})
}
