package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrEmailTaken         = fmt.Errorf("email already registered")
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrRestoreInProgress  = fmt.Errorf("session restore already in progress")
	ErrPersistence        = fmt.Errorf("session persistence failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMalformedResponse  = fmt.Errorf("malformed response")
	ErrNotFound           = fmt.Errorf("not found")
	ErrConflict           = fmt.Errorf("conflict")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// serverMessenger is implemented by errors that carry a human-readable message from the remote API.
type serverMessenger interface {
	ServerMessage() string
}

// UserMessage converts err into the string a view shows to the user.
//
// Messages sent by the API are used verbatim; transport and missing-credential failures get a generic sentence.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var sm serverMessenger
	if errors.As(err, &sm) && sm.ServerMessage() != "" {
		return sm.ServerMessage()
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "Please log in to continue."
	case errors.Is(err, ErrServiceUnavailable):
		return "Could not reach Vorplay. Check your connection and try again."
	case errors.Is(err, ErrMalformedResponse):
		return "Vorplay sent an unexpected response. Please try again."
	default:
		return err.Error()
	}
}
