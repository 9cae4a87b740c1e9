package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"coachdesk_app_echo/internal/models"
	"coachdesk_app_echo/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// ListSessions returns sessions filtered by client, status and window
func (h *SessionHandler) ListSessions(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	filter := services.ListFilter{
		ClientID: uintQuery(c, "client_id"),
		Status:   models.SessionStatus(c.QueryParam("status")),
		From:     timeQuery(c, "from"),
		To:       timeQuery(c, "to"),
	}
	sessions, err := h.sessions.List(ctx, trainerID(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessions)
}

// CreateSession schedules a session; linking a package reserves
// nothing, credits move only on completion
func (h *SessionHandler) CreateSession(c echo.Context) error {
	var input services.CreateSessionInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := h.sessions.Create(ctx, trainerID(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, session)
}

// UpdateSession edits schedule details without touching status
func (h *SessionHandler) UpdateSession(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var input services.UpdateSessionInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := h.sessions.Update(ctx, trainerID(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

type transitionInput struct {
	Status models.SessionStatus `json:"status"`
}

// TransitionSession moves a session through the status state machine.
// Completion consumes a package credit; reverting restores it. A lost
// race returns 409 and the caller retries after re-reading.
func (h *SessionHandler) TransitionSession(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var input transitionInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := h.sessions.Transition(ctx, trainerID(c), id, input.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// DeleteSession removes a session, restoring the credit of a completed
// one first
func (h *SessionHandler) DeleteSession(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.sessions.Delete(ctx, trainerID(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
