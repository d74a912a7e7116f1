package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"stocktake/internal/common"
	"stocktake/internal/services"
)

// CountingHandlers handles HTTP requests for the guided counting workflow
type CountingHandlers struct {
	counting services.CountingService
}

// NewCountingHandlers creates a new counting handlers instance
func NewCountingHandlers(counting services.CountingService) *CountingHandlers {
	return &CountingHandlers{counting: counting}
}

// StartSession opens a counting session over the countable items matching the
// given filter.
func (h *CountingHandlers) StartSession(c echo.Context) error {
	var req struct {
		Query        string `json:"query"`
		ProductGroup string `json:"product_group"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, http.StatusBadRequest, "Invalid request body")
	}

	status, err := h.counting.Start(c.Request().Context(), req.Query, req.ProductGroup)
	if err != nil {
		if errors.Is(err, services.ErrNoCountableItems) {
			return common.SendClientError(c, http.StatusConflict, err.Error())
		}
		return common.SendServerError(c, "Failed to start counting session")
	}
	return c.JSON(http.StatusCreated, status)
}

// GetSession returns the session positioned at its current item.
func (h *CountingHandlers) GetSession(c echo.Context) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}
	status, err := h.counting.Status(c.Request().Context(), sessionID)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// CommitCount records the entered count for the current item and advances.
func (h *CountingHandlers) CommitCount(c echo.Context) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}

	var req struct {
		Count *int `json:"count"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Count == nil {
		return common.SendClientError(c, http.StatusBadRequest, "count is required")
	}
	if *req.Count < 0 {
		return common.SendClientError(c, http.StatusBadRequest, "count cannot be negative")
	}

	status, err := h.counting.Commit(c.Request().Context(), sessionID, *req.Count)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// NextItem accepts the displayed count unchanged and advances.
func (h *CountingHandlers) NextItem(c echo.Context) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}
	status, err := h.counting.Next(c.Request().Context(), sessionID)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// PreviousItem steps back one item; at the first item nothing changes.
func (h *CountingHandlers) PreviousItem(c echo.Context) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}
	status, err := h.counting.Back(c.Request().Context(), sessionID)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// ResetSession rewinds the walk to the first item, keeping recorded counts.
func (h *CountingHandlers) ResetSession(c echo.Context) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}
	status, err := h.counting.Reset(c.Request().Context(), sessionID)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// CommitSingleItem counts one item and closes the session over the rest.
func (h *CountingHandlers) CommitSingleItem(c echo.Context) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}
	itemID, err := parseItemID(c)
	if err != nil {
		return err
	}

	var req struct {
		Count *int `json:"count"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Count == nil {
		return common.SendClientError(c, http.StatusBadRequest, "count is required")
	}
	if *req.Count < 0 {
		return common.SendClientError(c, http.StatusBadRequest, "count cannot be negative")
	}

	status, err := h.counting.CommitSingle(c.Request().Context(), sessionID, itemID, *req.Count)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// EndSession discards the session state.
func (h *CountingHandlers) EndSession(c echo.Context) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return err
	}
	if err := h.counting.End(c.Request().Context(), sessionID); err != nil {
		return common.SendServerError(c, "Failed to end counting session")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Session ended"})
}

func parseSessionID(c echo.Context) (uuid.UUID, error) {
	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid session id")
	}
	return sessionID, nil
}

func sessionError(c echo.Context, err error) error {
	if errors.Is(err, services.ErrSessionNotFound) {
		return common.SendNotFoundError(c, "Counting session")
	}
	return common.SendServerError(c, err.Error())
}
