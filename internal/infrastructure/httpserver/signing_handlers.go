package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/application/signing"
	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/session"
	"github.com/avatarctic/contract-admin/internal/core/domain/signature"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/helpers"
)

// signingView is what the signing modal renders.
type signingView struct {
	State     signing.State `json:"state"`
	ModalOpen bool          `json:"modalOpen"`
	Pending   bool          `json:"pending"`
	HasOTP    bool          `json:"hasOtp"`
	FileName  string        `json:"fileName,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func toSigningView(snap signing.Snapshot) signingView {
	v := signingView{
		State:     snap.State,
		ModalOpen: snap.ModalOpen,
		Pending:   snap.Pending,
		HasOTP:    snap.OTP != "",
		FileName:  snap.File.Name,
	}
	if snap.Err != nil {
		v.Error = apierr.UserMessage(snap.Err)
	}
	return v
}

// flowFor returns the signing flow of the logged in user for a contract,
// starting one on first use.
func (s *Server) flowFor(c echo.Context) (*signing.Flow, error) {
	sess, err := helpers.GetSessionFromContext(c)
	if err != nil {
		return nil, err
	}
	contractID, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	return s.flow(contractID, sess), nil
}

func (s *Server) flow(contractID int, sess *session.Session) *signing.Flow {
	key := flowKey{contractID: contractID, signerID: sess.User.ID}

	s.flowsMu.Lock()
	defer s.flowsMu.Unlock()
	if f, ok := s.flows[key]; ok {
		return f
	}
	f := signing.NewFlow(signing.Writes{
		SendOTP: s.res.Signatures.SendOTP,
		Sign:    s.res.Signatures.Sign,
	}, contractID, sess.User.ID, sess.User.Email, s.logger)
	s.flows[key] = f
	return f
}

func (s *Server) resetFlows() {
	s.flowsMu.Lock()
	defer s.flowsMu.Unlock()
	s.flows = make(map[flowKey]*signing.Flow)
}

func (s *Server) signingState(c echo.Context) error {
	f, err := s.flowFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSigningView(f.Snapshot()))
}

func (s *Server) requestSigningOTP(c echo.Context) error {
	f, err := s.flowFor(c)
	if err != nil {
		return err
	}
	if err := f.RequestSignature(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSigningView(f.Snapshot()))
}

// submitSignature takes the OTP from the "otp" form value and an optional
// rendered document from the "file" part.
func (s *Server) submitSignature(c echo.Context) error {
	f, err := s.flowFor(c)
	if err != nil {
		return err
	}
	file, ok, err := helpers.ReadFormFile(c, "file")
	if err != nil {
		return err
	}
	if ok {
		f.SelectFile(signature.File{Name: file.Name, ContentType: file.ContentType, Data: file.Data})
	}
	f.SetOTP(c.FormValue("otp"))

	sig, err := f.Submit(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sig)
}

func (s *Server) closeSigningModal(c echo.Context) error {
	f, err := s.flowFor(c)
	if err != nil {
		return err
	}
	f.CloseModal()
	return c.JSON(http.StatusOK, toSigningView(f.Snapshot()))
}
