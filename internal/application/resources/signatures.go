package resources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/signature"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
)

const signaturesPath = "/signatures"

// Signatures binds contract signing. SendOTP is not cached and invalidates
// nothing; Sign changes the contract, its approval flow and produces
// notifications, so it invalidates all of them.
type Signatures struct {
	api   ports.APIClient
	store *query.Store

	SendOTP *query.Mutation[signature.SendOTPRequest, struct{}]
	Sign    *query.Mutation[signature.SignRequest, signature.Signature]
}

func NewSignatures(api ports.APIClient, store *query.Store) *Signatures {
	s := &Signatures{api: api, store: store}

	// an empty email is passed through; the API decides
	s.SendOTP = query.NewMutation(store, "signatures.send_otp", func(ctx context.Context, in signature.SendOTPRequest) (struct{}, error) {
		_, err := api.Post(ctx, signaturesPath+"/send-otp", in, nil)
		return struct{}{}, err
	})

	s.Sign = query.NewMutation(store, "signatures.sign", func(ctx context.Context, in signature.SignRequest) (signature.Signature, error) {
		return decode[signature.Signature](api.Post(ctx, signaturesPath+"/sign", signForm(in), nil))
	}).WithValidate(func(in signature.SignRequest) error {
		if err := validateID("contractId", in.ContractID); err != nil {
			return err
		}
		if err := validateID("signerId", in.SignerID); err != nil {
			return err
		}
		if in.OTP == "" {
			return apierr.Invalid("otp", "is required")
		}
		return nil
	}).WithInvalidates(invalidates[signature.SignRequest, signature.Signature](
		ResourceSignatures, ResourceContracts, ResourceApprovalFlows, ResourceNotifications,
	))

	return s
}

func signForm(in signature.SignRequest) *ports.MultipartForm {
	file := in.File
	if file.Name == "" && file.IsEmpty() {
		file = signature.NoFile
	}
	return &ports.MultipartForm{
		Fields: map[string]string{
			"contractId": strconv.Itoa(in.ContractID),
			"signerId":   strconv.Itoa(in.SignerID),
			"otp":        in.OTP,
		},
		Files: []ports.FormFile{{
			Field:       "file",
			FileName:    file.Name,
			ContentType: file.ContentType,
			Data:        file.Data,
		}},
	}
}

func (s *Signatures) ByContractQuery(contractID int) query.Query[[]signature.Signature] {
	q := query.Query[[]signature.Signature]{Key: query.NewKey(ResourceSignatures, query.P("contractId", contractID))}
	if err := validateID("contractId", contractID); err != nil {
		q.Fetch = invalid[[]signature.Signature](err)
		return q
	}
	q.Fetch = func(ctx context.Context) ([]signature.Signature, error) {
		return getJSON[[]signature.Signature](ctx, s.api, signaturesPath, url.Values{"contractId": {strconv.Itoa(contractID)}})
	}
	return q
}

func (s *Signatures) ByContract(ctx context.Context, contractID int) ([]signature.Signature, error) {
	return query.Ensure(ctx, s.store, s.ByContractQuery(contractID))
}
