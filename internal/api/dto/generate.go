package dto

type GenerateRequest struct {
	TargetCount int `json:"target_count"`
}

type GenerateResponse struct {
	Addresses []string `json:"addresses"`
	Count     int      `json:"count"`
}
