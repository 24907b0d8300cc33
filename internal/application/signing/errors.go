package signing

import "errors"

var (
	ErrOTPNotRequested = errors.New("request an OTP before signing")
	ErrAlreadySigned   = errors.New("contract is already signed")
	ErrStepPending     = errors.New("a signing step is already in progress")
)
