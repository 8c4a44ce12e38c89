// Package errs provides the error values handlers return so the error
// middleware can report them with the right HTTP status.
package errs

import "errors"

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is an expected error whose message is safe to show the client.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap gives errors.Is access to the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// AsTrusted returns the trusted error held in the chain, if any.
func AsTrusted(err error) (*Trusted, bool) {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil, false
	}
	return te, true
}

// =============================================================================

// Status pairs a domain error with the HTTP status it is reported with.
type Status struct {
	Err  error
	Code int
}

// Statuses is the table a handler group uses to report core errors. The
// first entry that matches wins.
type Statuses []Status

// Trust replaces a matching core error with a trusted error carrying only
// the sentinel, so wrapped context stays in the logs. Errors that match no
// entry are returned untouched.
func (ss Statuses) Trust(err error) error {
	for _, s := range ss {
		if errors.Is(err, s.Err) {
			return NewTrusted(s.Err, s.Code)
		}
	}

	return err
}
