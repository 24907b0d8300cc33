package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/approval"
	"github.com/avatarctic/contract-admin/internal/core/domain/notification"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/helpers"
	"github.com/avatarctic/contract-admin/internal/query"
)

// streamEvent is one server-sent event carrying an observed read.
type streamEvent[T any] struct {
	Status     string     `json:"status"`
	Data       *T         `json:"data,omitempty"`
	Error      string     `json:"error,omitempty"`
	IsFetching bool       `json:"isFetching"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

func toStreamEvent[T any](st query.State[T]) streamEvent[T] {
	ev := streamEvent[T]{Status: st.Status.String(), IsFetching: st.IsFetching}
	if st.HasData {
		data := st.Data
		ev.Data = &data
	}
	if st.Err != nil {
		ev.Error = apierr.UserMessage(st.Err)
	}
	if !st.UpdatedAt.IsZero() {
		at := st.UpdatedAt
		ev.UpdatedAt = &at
	}
	return ev
}

// streamObserver writes every state of o as a server-sent event until the
// client disconnects. The observer is closed on return.
func streamObserver[T any](c echo.Context, o *query.Observer[T]) error {
	defer o.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-o.Updates():
			if !ok {
				return nil
			}
			b, err := json.Marshal(toStreamEvent(st))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

// streamNotifications pushes the logged in user's notification page as it
// is polled.
func (s *Server) streamNotifications(c echo.Context) error {
	sess, err := helpers.GetSessionFromContext(c)
	if err != nil {
		return err
	}
	page, limit, err := helpers.Pagination(c)
	if err != nil {
		return err
	}
	o := s.res.Notifications.Observe(notification.ListParams{UserID: sess.User.ID, Page: page, Limit: limit})
	return streamObserver(c, o)
}

func (s *Server) streamPendingApprovals(c echo.Context) error {
	sess, err := helpers.GetSessionFromContext(c)
	if err != nil {
		return err
	}
	page, limit, err := helpers.Pagination(c)
	if err != nil {
		return err
	}
	o := s.res.Approvals.ObservePending(approval.PendingParams{ApproverID: sess.User.ID, Page: page, Limit: limit})
	return streamObserver(c, o)
}

// focus tells the store the console regained focus; stale observed reads refetch.
func (s *Server) focus(c echo.Context) error {
	if s.store != nil {
		s.store.Focus()
	}
	return c.NoContent(http.StatusNoContent)
}
