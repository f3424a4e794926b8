package kimble

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/talan-labs/avatar/backend/internal/model/leave"
)

// Client talks to the Kimble HR API with Bearer authentication. All calls
// are bounded by the configured timeout.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New builds a Kimble client for the given base URL and API key.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FillAbsence records an absence for a user; new absences start pending
// approval.
func (c *Client) FillAbsence(ctx context.Context, userID int, date time.Time, reason string) (leave.Absence, error) {
	payload := map[string]any{
		"userId": userID,
		"date":   date.Format("2006-01-02"),
		"reason": reason,
		"status": "PENDING_APPROVAL",
	}

	var absence leave.Absence
	if err := c.do(ctx, http.MethodPost, "/api/v1/absences", nil, payload, &absence); err != nil {
		return leave.Absence{}, fmt.Errorf("failed to fill absence: %w", err)
	}
	return absence, nil
}

// GetAbsences lists a user's absences inside the date range.
func (c *Client) GetAbsences(ctx context.Context, userID int, rng leave.DateRange) ([]leave.Absence, error) {
	query := url.Values{
		"userId":    {strconv.Itoa(userID)},
		"startDate": {rng.Start.Format("2006-01-02")},
		"endDate":   {rng.End.Format("2006-01-02")},
	}

	var absences []leave.Absence
	if err := c.do(ctx, http.MethodGet, "/api/v1/absences", query, nil, &absences); err != nil {
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}
	return absences, nil
}

// CountAbsences counts a user's absences inside the date range.
func (c *Client) CountAbsences(ctx context.Context, userID int, rng leave.DateRange) (int, error) {
	absences, err := c.GetAbsences(ctx, userID, rng)
	if err != nil {
		return 0, err
	}
	return len(absences), nil
}

// IsAbsent reports whether the user has any absence recorded on the day.
func (c *Client) IsAbsent(ctx context.Context, userID int, day time.Time) (bool, error) {
	absences, err := c.GetAbsences(ctx, userID, leave.DateRange{Start: day, End: day})
	if err != nil {
		return false, err
	}
	return len(absences) > 0, nil
}

// SubmitWeek submits a user's timesheet week for approval.
func (c *Client) SubmitWeek(ctx context.Context, userID, weekNo int) error {
	path := fmt.Sprintf("/api/v1/users/%d/timesheets/submit", userID)
	payload := map[string]any{"weekNumber": weekNo}
	if err := c.do(ctx, http.MethodPost, path, nil, payload, nil); err != nil {
		return fmt.Errorf("failed to submit week %d: %w", weekNo, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("kimble returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
