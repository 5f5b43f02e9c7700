package dto

import "time"

// ErrorResponse is the standardized JSON error payload returned by every
// failing endpoint.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Message      string    `json:"message" example:"symbol is required"`
	ErrorDetails string    `json:"error,omitempty" example:"sql: no rows"`
	Timestamp    time.Time `json:"timestamp"`
}

// Error implements the error interface so handlers can propagate responses as
// plain errors when convenient.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails != "" {
		return e.Message + ": " + e.ErrorDetails
	}
	return e.Message
}

// NewErrorResponse builds an ErrorResponse, embedding the inner error's text
// when one is provided.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{
		Message:   message,
		Timestamp: time.Now(),
	}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
