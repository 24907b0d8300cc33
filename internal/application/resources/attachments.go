package resources

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/attachment"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
)

const attachmentsPath = "/attachments"

// Attachments binds the files attached to a contract.
type Attachments struct {
	api   ports.APIClient
	store *query.Store

	Upload *query.Mutation[attachment.UploadRequest, attachment.Attachment]
	Delete *query.Mutation[int, struct{}]
}

func NewAttachments(api ports.APIClient, store *query.Store) *Attachments {
	a := &Attachments{api: api, store: store}

	a.Upload = query.NewMutation(store, "attachments.upload", func(ctx context.Context, in attachment.UploadRequest) (attachment.Attachment, error) {
		form := &ports.MultipartForm{
			Fields: map[string]string{"contractId": strconv.Itoa(in.ContractID)},
			Files: []ports.FormFile{{
				Field:       "file",
				FileName:    in.FileName,
				ContentType: in.ContentType,
				Data:        in.Data,
			}},
		}
		return decode[attachment.Attachment](api.Post(ctx, attachmentsPath, form, nil))
	}).WithValidate(func(in attachment.UploadRequest) error {
		if err := validateID("contractId", in.ContractID); err != nil {
			return err
		}
		if strings.TrimSpace(in.FileName) == "" {
			return apierr.Invalid("fileName", "is required")
		}
		if len(in.Data) == 0 {
			return apierr.Invalid("file", "must not be empty")
		}
		return nil
	}).WithInvalidates(invalidates[attachment.UploadRequest, attachment.Attachment](ResourceAttachments, ResourceContracts))

	a.Delete = query.NewMutation(store, "attachments.delete", func(ctx context.Context, id int) (struct{}, error) {
		_, err := api.Delete(ctx, itemPath(attachmentsPath, id), nil)
		return struct{}{}, err
	}).WithValidate(func(id int) error { return validateID("id", id) }).
		WithInvalidates(invalidates[int, struct{}](ResourceAttachments, ResourceContracts))

	return a
}

func (a *Attachments) ByContractQuery(contractID int) query.Query[[]attachment.Attachment] {
	q := query.Query[[]attachment.Attachment]{Key: query.NewKey(ResourceAttachments, query.P("contractId", contractID))}
	if err := validateID("contractId", contractID); err != nil {
		q.Fetch = invalid[[]attachment.Attachment](err)
		return q
	}
	q.Fetch = func(ctx context.Context) ([]attachment.Attachment, error) {
		return getJSON[[]attachment.Attachment](ctx, a.api, attachmentsPath, url.Values{"contractId": {strconv.Itoa(contractID)}})
	}
	return q
}

func (a *Attachments) ByContract(ctx context.Context, contractID int) ([]attachment.Attachment, error) {
	return query.Ensure(ctx, a.store, a.ByContractQuery(contractID))
}
