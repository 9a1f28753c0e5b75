package dto

type DashboardInfo struct {
	CurrentAddress  string           `json:"current_address"`
	TrackedActive   int64            `json:"tracked_active"`
	TrackedCapacity int              `json:"tracked_capacity"`
	ActivePerSource map[string]int64 `json:"active_per_source"`
	ActiveInstances int              `json:"active_instances"`
}
