package domain

import "time"

type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int64  `json:"count" db:"count"`
}

// InventoryVolume aggregates usable stock for one blood type and component.
type InventoryVolume struct {
	BloodType
	ComponentType ComponentType `json:"blood_component_type" db:"blood_component_type"`
	Units         int64         `json:"units" db:"units"`
	Volume        int64         `json:"volume" db:"volume"`
}

type DashboardStats struct {
	BloodUnitsByStatus        []StatusCount     `json:"blood_units_by_status"`
	AvailableInventory        []InventoryVolume `json:"available_inventory"`
	EmergencyRequestsByStatus []StatusCount     `json:"emergency_requests_by_status"`
	DonationsByStatus         []StatusCount     `json:"donations_by_status"`
	TotalCustomers            int64             `json:"total_customers"`
	ActiveCampaigns           int64             `json:"active_campaigns"`
	GeneratedAt               time.Time         `json:"generated_at"`
}
