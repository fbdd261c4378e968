package partnerapi

import (
	"errors"
	"fmt"
)

// DispatchAPIError is a partner response that is neither success,
// duplicate (409), auth failure (401) nor not-found (404). It carries the raw
// status and body for diagnosis.
type DispatchAPIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

type apiErrorResponse struct {
	Code    string `json:"code"`
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *DispatchAPIError) Error() string {
	return fmt.Sprintf("partner error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

// IsDispatchAPIError unwraps err into a DispatchAPIError when possible.
func IsDispatchAPIError(err error) (*DispatchAPIError, bool) {
	var apiErr *DispatchAPIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
