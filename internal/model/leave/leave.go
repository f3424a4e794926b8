package leave

import "time"

// Balance holds the leave entitlement figures shown in the balance panel.
type Balance struct {
	UserID    int     `json:"userId"`
	Total     float64 `json:"total"`
	Used      float64 `json:"used"`
	RTT       float64 `json:"rtt"`
	RTTUsed   float64 `json:"rttUsed"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// Remaining returns the annual leave days still available.
func (b Balance) Remaining() float64 {
	return b.Total - b.Used
}

// RTTRemaining returns the RTT days still available.
func (b Balance) RTTRemaining() float64 {
	return b.RTT - b.RTTUsed
}

// TeamMember is one row of the team availability panel.
type TeamMember struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"` // available, remote, on-leave
}

// Absence is a single recorded absence in the HR system.
type Absence struct {
	ID     string `json:"id,omitempty"`
	UserID int    `json:"userId"`
	Date   string `json:"date"` // ISO date, 2006-01-02
	Reason string `json:"reason"`
	Status string `json:"status"`
}

// DateRange bounds an absence query, inclusive on both ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls inside the range, comparing dates only.
func (r DateRange) Contains(day time.Time) bool {
	d := day.Truncate(24 * time.Hour)
	return !d.Before(r.Start.Truncate(24*time.Hour)) && !d.After(r.End.Truncate(24*time.Hour))
}
