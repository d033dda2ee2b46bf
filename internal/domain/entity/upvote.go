package entity

// UserUpvotes maps report storage ids to 0/1 for a single user. Integers rather than
// booleans so the flag can be written with increments.
type UserUpvotes struct {
	UserID string         `json:"user_id"`
	Flags  map[string]int `json:"flags"`
}

// Has reports whether the user currently upvotes the report.
func (u *UserUpvotes) Has(reportID string) bool {
	if u == nil || u.Flags == nil {
		return false
	}
	return u.Flags[reportID] > 0
}

// UpvoteResult is the state after a toggle.
type UpvoteResult struct {
	ReportID string `json:"report_id"`
	Upvoted  bool   `json:"upvoted"`
	Upvotes  int    `json:"upvotes"`
}
