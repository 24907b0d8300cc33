package signing_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/avatarctic/contract-admin/internal/application/resources"
	"github.com/avatarctic/contract-admin/internal/application/signing"
	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/signature"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
	"github.com/avatarctic/contract-admin/test/mocks"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// recordingWrites builds flow writes that record their inputs.
func recordingWrites(s *query.Store, otpErr, signErr error) (signing.Writes, *[]signature.SendOTPRequest, *[]signature.SignRequest) {
	var otps []signature.SendOTPRequest
	var signs []signature.SignRequest
	w := signing.Writes{
		SendOTP: query.NewMutation(s, "otp", func(ctx context.Context, in signature.SendOTPRequest) (struct{}, error) {
			otps = append(otps, in)
			return struct{}{}, otpErr
		}),
		Sign: query.NewMutation(s, "sign", func(ctx context.Context, in signature.SignRequest) (signature.Signature, error) {
			signs = append(signs, in)
			if signErr != nil {
				return signature.Signature{}, signErr
			}
			return signature.Signature{ID: 1, ContractID: in.ContractID, SignerID: in.SignerID}, nil
		}),
	}
	return w, &otps, &signs
}

func newStore(t *testing.T) *query.Store {
	s := query.New()
	t.Cleanup(s.Close)
	return s
}

func TestFlow_RequestSignatureOpensModal(t *testing.T) {
	w, otps, _ := recordingWrites(newStore(t), nil, nil)
	f := signing.NewFlow(w, 42, 7, "", quietLogger())
	require.Equal(t, signing.StateUnsigned, f.Snapshot().State)

	require.NoError(t, f.RequestSignature(context.Background()))
	snap := f.Snapshot()
	require.Equal(t, signing.StateOTPRequested, snap.State)
	require.True(t, snap.ModalOpen)
	require.False(t, snap.Failed())
	require.Equal(t, []signature.SendOTPRequest{{Email: ""}}, *otps)
}

func TestFlow_RequestSignatureFailureStaysUnsigned(t *testing.T) {
	boom := &apierr.HTTPError{StatusCode: 500, Message: "mail server down"}
	w, _, _ := recordingWrites(newStore(t), boom, nil)
	f := signing.NewFlow(w, 42, 7, "ann@example.com", quietLogger())

	require.ErrorIs(t, f.RequestSignature(context.Background()), boom)
	snap := f.Snapshot()
	require.Equal(t, signing.StateUnsigned, snap.State)
	require.False(t, snap.ModalOpen)
	require.True(t, snap.Failed())
}

func TestFlow_SubmitWithoutFileSendsSentinel(t *testing.T) {
	w, _, signs := recordingWrites(newStore(t), nil, nil)
	f := signing.NewFlow(w, 42, 7, "ann@example.com", quietLogger())
	require.NoError(t, f.RequestSignature(context.Background()))

	f.SetOTP("123456")
	sig, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, sig.ContractID)

	require.Equal(t, []signature.SignRequest{{ContractID: 42, SignerID: 7, File: signature.NoFile, OTP: "123456"}}, *signs)
	snap := f.Snapshot()
	require.Equal(t, signing.StateSigned, snap.State)
	require.False(t, snap.ModalOpen)
	require.Empty(t, snap.OTP)
	require.NoError(t, snap.Err)
}

func TestFlow_SubmitCarriesSelectedFile(t *testing.T) {
	w, _, signs := recordingWrites(newStore(t), nil, nil)
	f := signing.NewFlow(w, 1, 2, "a@b.c", quietLogger())
	require.NoError(t, f.RequestSignature(context.Background()))

	file := signature.File{Name: "contract-1.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.7")}
	f.SelectFile(file)
	f.SetOTP("000111")
	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, file, (*signs)[0].File)
}

func TestFlow_SubmitFailureKeepsPositionAndOTP(t *testing.T) {
	boom := &apierr.HTTPError{StatusCode: 400, Message: "invalid otp"}
	w, otps, _ := recordingWrites(newStore(t), nil, boom)
	f := signing.NewFlow(w, 42, 7, "ann@example.com", quietLogger())
	require.NoError(t, f.RequestSignature(context.Background()))
	f.SetOTP("999999")

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, boom)
	snap := f.Snapshot()
	require.Equal(t, signing.StateOTPRequested, snap.State)
	require.Equal(t, "999999", snap.OTP)
	require.True(t, snap.ModalOpen)
	require.True(t, snap.Failed())

	// a new OTP re-enters the request step without moving the flow
	require.NoError(t, f.RequestSignature(context.Background()))
	snap = f.Snapshot()
	require.Equal(t, signing.StateOTPRequested, snap.State)
	require.False(t, snap.Failed())
	require.Len(t, *otps, 2)
}

func TestFlow_GuardsOutOfOrderSteps(t *testing.T) {
	w, _, signs := recordingWrites(newStore(t), nil, nil)
	f := signing.NewFlow(w, 42, 7, "", quietLogger())

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, signing.ErrOTPNotRequested)
	require.Empty(t, *signs)

	require.NoError(t, f.RequestSignature(context.Background()))
	f.SetOTP("1")
	_, err = f.Submit(context.Background())
	require.NoError(t, err)

	require.ErrorIs(t, f.RequestSignature(context.Background()), signing.ErrAlreadySigned)
	_, err = f.Submit(context.Background())
	require.ErrorIs(t, err, signing.ErrAlreadySigned)
}

func TestFlow_WithSignatureResources(t *testing.T) {
	var form *ports.MultipartForm
	api := &mocks.APIClientMock{PostFn: func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
		if path == "/signatures/sign" {
			form = body.(*ports.MultipartForm)
			return &ports.Response{StatusCode: 201, Body: []byte(`{"id":9,"contractId":42,"signerId":7}`)}, nil
		}
		return &ports.Response{StatusCode: 204}, nil
	}}
	sigs := resources.NewSignatures(api, newStore(t))
	f := signing.NewFlow(signing.Writes{SendOTP: sigs.SendOTP, Sign: sigs.Sign}, 42, 7, "", quietLogger())

	require.NoError(t, f.RequestSignature(context.Background()))
	f.SetOTP("123456")
	sig, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, sig.ID)
	require.Equal(t, "empty.pdf", form.Files[0].FileName)
	require.Equal(t, 1, api.CallCount("POST", "/signatures/send-otp"))
}

func TestFlow_EmptyOTPIsRejectedClientSide(t *testing.T) {
	api := &mocks.APIClientMock{}
	sigs := resources.NewSignatures(api, newStore(t))
	f := signing.NewFlow(signing.Writes{SendOTP: sigs.SendOTP, Sign: sigs.Sign}, 42, 7, "", quietLogger())
	require.NoError(t, f.RequestSignature(context.Background()))

	_, err := f.Submit(context.Background())
	require.True(t, apierr.IsValidation(err))
	require.False(t, errors.Is(err, signing.ErrOTPNotRequested))
	require.Equal(t, signing.StateOTPRequested, f.Snapshot().State)
	require.Equal(t, 0, api.CallCount("POST", "/signatures/sign"))
}

func TestFlow_OneStepAtATime(t *testing.T) {
	s := newStore(t)
	var signCalls atomic.Int32
	release := make(chan struct{})
	w := signing.Writes{
		SendOTP: query.NewMutation(s, "otp", func(ctx context.Context, in signature.SendOTPRequest) (struct{}, error) {
			return struct{}{}, nil
		}),
		Sign: query.NewMutation(s, "sign", func(ctx context.Context, in signature.SignRequest) (signature.Signature, error) {
			signCalls.Add(1)
			<-release
			return signature.Signature{ID: 1, ContractID: in.ContractID}, nil
		}),
	}
	f := signing.NewFlow(w, 42, 7, "", quietLogger())
	require.NoError(t, f.RequestSignature(context.Background()))
	f.SetOTP("123456")

	var g errgroup.Group
	g.Go(func() error {
		_, err := f.Submit(context.Background())
		return err
	})
	require.Eventually(t, func() bool { return f.Snapshot().Pending }, time.Second, 5*time.Millisecond)

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, signing.ErrStepPending)
	require.ErrorIs(t, f.RequestSignature(context.Background()), signing.ErrStepPending)

	close(release)
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), signCalls.Load())
	snap := f.Snapshot()
	require.Equal(t, signing.StateSigned, snap.State)
	require.False(t, snap.Pending)
	require.NoError(t, snap.Err)
}
