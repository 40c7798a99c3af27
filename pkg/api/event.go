package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo"
	"github.com/oneilljw/homecontrol/pkg/api/resource"
	"github.com/oneilljw/homecontrol/pkg/storage"
)

const defaultEventLimit = 100

func (h *Handler) handleFetchEvents(c echo.Context) error {
	limit := defaultEventLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	m, err := h.store.Events().FetchRecent(limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, resource.NewEventList(m))
}

func (h *Handler) handleGetEventByID(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err))
	}

	m, err := h.store.Events().FindByID(int32(id))
	if err != nil && storage.IsNotFound(err) {
		return c.JSON(http.StatusNotFound, errorBody(err))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, resource.NewEvent(m))
}
