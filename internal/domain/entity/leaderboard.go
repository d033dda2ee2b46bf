package entity

const (
	PointsPerCompletedReport = 10
	UnknownCounty            = "Unknown"
)

// CountyLeaderboardEntry is derived on every read and never persisted.
type CountyLeaderboardEntry struct {
	County           string `json:"county"`
	Points           int    `json:"points"`
	CompletedReports int    `json:"completedReports"`
}
