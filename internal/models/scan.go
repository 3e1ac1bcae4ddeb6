package models

// Scan is the database row for one persisted scan.
type Scan struct {
	UUID       string `gorm:"primaryKey;type:varchar(36)" json:"uuid"`
	Target     string `json:"target"`
	Status     string `json:"status"`
	Project    string `json:"project"`
	Tools      string `json:"tools"` // comma-joined request order
	OutputDir  string `json:"output_dir"`
	DurationMS int64  `json:"duration_ms"`

	// Severity histogram, denormalized for cheap dashboard queries.
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}
