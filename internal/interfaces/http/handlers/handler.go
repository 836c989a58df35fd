// Package handlers holds the gin handlers of the HTTP API. Every response uses the
// dto.APIResponse envelope.
package handlers

import "github.com/turtacn/crn/pkg/errors"

// bindError converts a gin binding failure into an invalid_request error.
func bindError(err error) error {
	return errors.ErrValidation("malformed request").WithCause(err)
}
