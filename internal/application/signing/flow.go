// Package signing sequences the contract e-signature flow: request an OTP,
// confirm it in a modal, then sign.
package signing

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/contract-admin/internal/core/domain/signature"
	"github.com/avatarctic/contract-admin/internal/query"
)

// State is the position of a signing flow.
type State string

const (
	StateUnsigned     State = "unsigned"
	StateOTPRequested State = "otp_requested"
	StateSigned       State = "signed"
)

// Snapshot is what the signing view renders. A failed step keeps the
// position and reports the failure in Err.
type Snapshot struct {
	State     State
	ModalOpen bool
	OTP       string
	File      signature.File
	Err       error
	// Pending is true while a write is in flight.
	Pending bool
}

// Failed reports whether the latest step failed.
func (s Snapshot) Failed() bool { return s.Err != nil }

// Writes are the two remote writes the flow issues.
type Writes struct {
	SendOTP *query.Mutation[signature.SendOTPRequest, struct{}]
	Sign    *query.Mutation[signature.SignRequest, signature.Signature]
}

// Flow signs one contract on behalf of one signer.
type Flow struct {
	writes     Writes
	contractID int
	signerID   int
	email      string
	logger     *logrus.Logger

	mu   sync.Mutex
	snap Snapshot
}

// NewFlow starts an unsigned flow. email receives the OTP.
func NewFlow(w Writes, contractID, signerID int, email string, logger *logrus.Logger) *Flow {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Flow{
		writes:     w,
		contractID: contractID,
		signerID:   signerID,
		email:      email,
		logger:     logger,
		snap:       Snapshot{State: StateUnsigned},
	}
}

// RequestSignature sends an OTP to the signer. On success the flow is in
// otp_requested with the modal open. Re-requesting from otp_requested
// sends a new OTP without moving the flow. Only one step runs at a time;
// a step started while another is pending fails with ErrStepPending.
func (f *Flow) RequestSignature(ctx context.Context) error {
	f.mu.Lock()
	if f.snap.State == StateSigned {
		f.mu.Unlock()
		return ErrAlreadySigned
	}
	if f.snap.Pending {
		f.mu.Unlock()
		return ErrStepPending
	}
	f.snap.Pending = true
	f.mu.Unlock()

	_, err := f.writes.SendOTP.Mutate(ctx, signature.SendOTPRequest{Email: f.email})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.Pending = false
	f.snap.Err = err
	if err != nil {
		f.entry().WithError(err).Warn("OTP request failed")
		return err
	}
	f.snap.State = StateOTPRequested
	f.snap.ModalOpen = true
	f.entry().Info("OTP sent")
	return nil
}

// SetOTP records the value typed into the modal.
func (f *Flow) SetOTP(otp string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.OTP = otp
}

// SelectFile records the rendered contract document to sign.
func (f *Flow) SelectFile(file signature.File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.File = file
}

// CloseModal hides the OTP modal without changing the flow's position.
func (f *Flow) CloseModal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.ModalOpen = false
}

// Submit issues the sign write with the recorded OTP and file. When no file
// was selected the write carries signature.NoFile. On success the flow is
// signed, the modal closes and the OTP is cleared; on failure the flow
// stays in otp_requested and keeps the OTP.
func (f *Flow) Submit(ctx context.Context) (signature.Signature, error) {
	f.mu.Lock()
	switch f.snap.State {
	case StateUnsigned:
		f.mu.Unlock()
		return signature.Signature{}, ErrOTPNotRequested
	case StateSigned:
		f.mu.Unlock()
		return signature.Signature{}, ErrAlreadySigned
	}
	if f.snap.Pending {
		f.mu.Unlock()
		return signature.Signature{}, ErrStepPending
	}
	file := f.snap.File
	if file.IsEmpty() {
		file = signature.NoFile
	}
	req := signature.SignRequest{
		ContractID: f.contractID,
		SignerID:   f.signerID,
		File:       file,
		OTP:        f.snap.OTP,
	}
	f.snap.Pending = true
	f.mu.Unlock()

	sig, err := f.writes.Sign.Mutate(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.Pending = false
	f.snap.Err = err
	if err != nil {
		f.entry().WithError(err).Warn("contract signing failed")
		return signature.Signature{}, err
	}
	f.snap.State = StateSigned
	f.snap.ModalOpen = false
	f.snap.OTP = ""
	f.entry().WithField("signature_id", sig.ID).Info("contract signed")
	return sig, nil
}

// Snapshot returns the current view state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *Flow) entry() *logrus.Entry {
	return f.logger.WithFields(logrus.Fields{
		"contract_id": f.contractID,
		"signer_id":   f.signerID,
		"state":       f.snap.State,
	})
}
