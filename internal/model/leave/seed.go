package leave

// SeedBalance provides the default entitlement shown before the HR system
// is wired in.
func SeedBalance(userID int) Balance {
	return Balance{
		UserID:  userID,
		Total:   25,
		Used:    13,
		RTT:     10,
		RTTUsed: 7,
	}
}

// SeedTeam provides the default roster for the team availability panel.
func SeedTeam() []TeamMember {
	return []TeamMember{
		{Name: "Sarah Chen", Role: "Product Manager", Status: "available"},
		{Name: "Marc Dubois", Role: "Backend Engineer", Status: "remote"},
		{Name: "Amira Haddad", Role: "UX Designer", Status: "on-leave"},
		{Name: "Tom Becker", Role: "Data Analyst", Status: "available"},
		{Name: "Lucie Moreau", Role: "HR Partner", Status: "available"},
	}
}

// SeedAbsences provides sample absences so the calendar panel has content
// without a Kimble connection.
func SeedAbsences(userID int) []Absence {
	return []Absence{
		{ID: "abs-001", UserID: userID, Date: "2025-08-11", Reason: "VAC", Status: "APPROVED"},
		{ID: "abs-002", UserID: userID, Date: "2025-08-12", Reason: "VAC", Status: "APPROVED"},
		{ID: "abs-003", UserID: userID, Date: "2025-09-22", Reason: "SICK", Status: "PENDING_APPROVAL"},
	}
}
