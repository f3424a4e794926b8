package leave

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talan-labs/avatar/backend/internal/model/leave"
)

// HRClient is the slice of the Kimble API the panel service consumes.
type HRClient interface {
	FillAbsence(ctx context.Context, userID int, date time.Time, reason string) (leave.Absence, error)
	GetAbsences(ctx context.Context, userID int, rng leave.DateRange) ([]leave.Absence, error)
	SubmitWeek(ctx context.Context, userID, weekNo int) error
}

// Service feeds the leave balance, calendar and team availability panels.
// With an HR client configured it delegates absence operations to Kimble;
// otherwise it serves seeded in-memory data so the UI works standalone.
type Service struct {
	mu       sync.RWMutex
	hr       HRClient
	balances map[int]leave.Balance
	absences map[int][]leave.Absence
	team     []leave.TeamMember
}

// NewService builds the panel service. hr may be nil.
func NewService(hr HRClient) *Service {
	return &Service{
		hr:       hr,
		balances: make(map[int]leave.Balance),
		absences: make(map[int][]leave.Absence),
		team:     leave.SeedTeam(),
	}
}

// Balance returns the user's leave entitlement, seeding defaults on first
// access.
func (s *Service) Balance(_ context.Context, userID int) leave.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.balances[userID]
	if !ok {
		balance = leave.SeedBalance(userID)
		s.balances[userID] = balance
	}
	return balance
}

// Team returns the roster for the availability panel.
func (s *Service) Team(_ context.Context) []leave.TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]leave.TeamMember(nil), s.team...)
}

// Absences lists the user's absences inside the range, via Kimble when
// configured.
func (s *Service) Absences(ctx context.Context, userID int, rng leave.DateRange) ([]leave.Absence, error) {
	if s.hr != nil {
		return s.hr.GetAbsences(ctx, userID, rng)
	}

	s.mu.Lock()
	records, ok := s.absences[userID]
	if !ok {
		records = leave.SeedAbsences(userID)
		s.absences[userID] = records
	}
	s.mu.Unlock()

	matched := make([]leave.Absence, 0, len(records))
	for _, absence := range records {
		day, err := time.Parse("2006-01-02", absence.Date)
		if err != nil {
			continue
		}
		if rng.Contains(day) {
			matched = append(matched, absence)
		}
	}
	return matched, nil
}

// IsAbsent reports whether the user has an absence on the day.
func (s *Service) IsAbsent(ctx context.Context, userID int, day time.Time) (bool, error) {
	absences, err := s.Absences(ctx, userID, leave.DateRange{Start: day, End: day})
	if err != nil {
		return false, err
	}
	return len(absences) > 0, nil
}

// CountAbsences counts the user's absences inside the range.
func (s *Service) CountAbsences(ctx context.Context, userID int, rng leave.DateRange) (int, error) {
	absences, err := s.Absences(ctx, userID, rng)
	if err != nil {
		return 0, err
	}
	return len(absences), nil
}

// FillAbsence records an absence, pending approval.
func (s *Service) FillAbsence(ctx context.Context, userID int, day time.Time, reason string) (leave.Absence, error) {
	if s.hr != nil {
		return s.hr.FillAbsence(ctx, userID, day, reason)
	}

	absence := leave.Absence{
		ID:     uuid.NewString(),
		UserID: userID,
		Date:   day.Format("2006-01-02"),
		Reason: reason,
		Status: "PENDING_APPROVAL",
	}

	s.mu.Lock()
	if _, ok := s.absences[userID]; !ok {
		s.absences[userID] = leave.SeedAbsences(userID)
	}
	s.absences[userID] = append(s.absences[userID], absence)
	s.mu.Unlock()

	return absence, nil
}

// SubmitWeek submits the user's timesheet week when an HR client is
// configured; standalone it is a no-op accept.
func (s *Service) SubmitWeek(ctx context.Context, userID, weekNo int) error {
	if s.hr != nil {
		return s.hr.SubmitWeek(ctx, userID, weekNo)
	}
	return nil
}
