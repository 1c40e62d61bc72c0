// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"shopledger/internal/core/apperror"
)

// --- Query parameters ---

// IntervalRequest is the ?from=&to= pair shared by interval endpoints.
// Both values are RFC3339 timestamps.
type IntervalRequest struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// Parse converts both bounds to time.Time.
func (r IntervalRequest) Parse() (from, to time.Time, err error) {
	if from, err = ParseTimestamp("from", r.From); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to, err = ParseTimestamp("to", r.To); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// ParseTimestamp parses an RFC3339 query value.
func ParseTimestamp(name, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperror.NewInvalidData("invalid "+name+" format, expected RFC3339").
			WithDetail("value", value)
	}
	return t, nil
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
