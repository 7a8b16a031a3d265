package domain

import "fmt"

// FetchError reports that the data source could not deliver an hourly table
// for one (location, model) pair.
type FetchError struct {
	Location string
	Model    string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s/%s: %v", e.Location, e.Model, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedInputError reports an hourly table that lacks a required column or
// cannot be interpreted.
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Field == "" {
		return "malformed hourly input: " + e.Reason
	}
	return fmt.Sprintf("malformed hourly input: %s: %s", e.Field, e.Reason)
}

// EmptyResultError is returned when no (location, model) pair in a run
// produced usable data.
type EmptyResultError struct {
	Attempted int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no usable forecast data from any of %d location/model pairs", e.Attempted)
}
