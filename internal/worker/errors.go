package worker

import (
	"errors"
	"fmt"
	"net/http"
)

// User-facing request errors. The exact wording is part of the external
// contract; clients and operators grep for these strings.
var (
	ErrParse                 = errors.New("Failed to parse json request")
	ErrInsufficientLocations = errors.New("Insufficient number of locations provided")
	ErrMissingCosting        = errors.New("No edge/node costing provided")
	ErrUnreachable           = errors.New("Locations are in unconnected regions. Go check/edit the map at osm.org")
	ErrDistanceExceeded      = errors.New("Path distance exceeds the max distance limit.")
)

// TooManyLocationsError reports a request over the configured location
// limit; the message names the limit.
type TooManyLocationsError struct {
	Max int
}

func (e *TooManyLocationsError) Error() string {
	return fmt.Sprintf("Exceeded max locations of %d.", e.Max)
}

// MissingParameterError reports a required top-level parameter that is
// absent or has the wrong shape.
type MissingParameterError struct {
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("Insufficiently specified required parameter '%s'", e.Param)
}

// StatusFor maps a request error to its HTTP status. Everything that is not
// an infeasibility pre-check failure is the client's fault.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnreachable):
		return http.StatusNotFound
	case errors.Is(err, ErrDistanceExceeded):
		return http.StatusPreconditionFailed
	default:
		return http.StatusBadRequest
	}
}
