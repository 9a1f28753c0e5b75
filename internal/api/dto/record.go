package dto

import "time"

type RegisterRequest struct {
	Address    string `json:"address"`
	Provenance string `json:"provenance"`
}

type RegisterResponse struct {
	Address string `json:"address"`
	Result  string `json:"result"`
}

type RecordInfo struct {
	ID         uint64    `json:"id"`
	Address    string    `json:"address"`
	Provenance string    `json:"provenance"`
	Country    string    `json:"country,omitempty"`
	Hostname   string    `json:"hostname,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type RecordPage struct {
	Records []RecordInfo `json:"records"`
	Total   int64        `json:"total"`
}

type DeactivateRequest struct {
	IDs []uint64 `json:"ids"`
}
