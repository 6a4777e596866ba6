package booking

import "errors"

var (
	ErrBadRequest        = errors.New("bad request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyUnlocked   = errors.New("already unlocked")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrReportClosed      = errors.New("report window closed")
	ErrPayment           = errors.New("payment failed")
)

func IsErrBadRequest(err error) bool        { return errors.Is(err, ErrBadRequest) }
func IsErrUnauthorized(err error) bool      { return errors.Is(err, ErrUnauthorized) }
func IsErrNotFound(err error) bool          { return errors.Is(err, ErrNotFound) }
func IsErrAlreadyUnlocked(err error) bool   { return errors.Is(err, ErrAlreadyUnlocked) }
func IsErrInvalidTransition(err error) bool { return errors.Is(err, ErrInvalidTransition) }
func IsErrReportClosed(err error) bool      { return errors.Is(err, ErrReportClosed) }
func IsErrPayment(err error) bool           { return errors.Is(err, ErrPayment) }
