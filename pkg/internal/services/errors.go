package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDescriptor rejects malformed handler registrations and
	// installations before any state is touched.
	ErrInvalidDescriptor = errors.New("invalid bot handler descriptor")

	ErrDuplicateAlias   = errors.New("alias already registered")
	ErrHandlerNotFound  = errors.New("bot handler not found")
	ErrPackageNotFound  = errors.New("bot package not found")
	ErrAlreadyInstalled = errors.New("bot handler already installed on this thread")

	ErrCallOngoing       = errors.New("this thread already has an ongoing call")
	ErrCallEnded         = errors.New("this call has already ended")
	ErrParticipantKicked = errors.New("provider was kicked from this call")
	ErrNotInCall         = errors.New("provider has no participant in this call")
)

// BundleInstallError names the handler that sunk a packaged bot install;
// the whole bundle was rolled back when it is returned.
type BundleInstallError struct {
	Package string
	Handler string
	Err     error
}

func (e *BundleInstallError) Error() string {
	return fmt.Sprintf("unable to install package %s, handler %s failed: %v", e.Package, e.Handler, e.Err)
}

func (e *BundleInstallError) Unwrap() error {
	return e.Err
}
