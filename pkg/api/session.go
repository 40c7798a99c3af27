package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo"
	"github.com/oneilljw/homecontrol/pkg/api/resource"
	"github.com/oneilljw/homecontrol/pkg/session"
)

func (h *Handler) handleFetchSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, resource.NewSessionList(h.reg.Snapshots()))
}

func (h *Handler) handleGetSessionByID(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err))
	}

	sess, err := h.reg.Find(id)
	if err != nil && err == session.ErrSessionNotFound {
		return c.JSON(http.StatusNotFound, errorBody(err))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, resource.NewSession(sess.Snapshot()))
}

func (h *Handler) handleKillSession(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err))
	}

	err = h.reg.Kill(id)
	if err != nil && err == session.ErrSessionNotFound {
		return c.JSON(http.StatusNotFound, errorBody(err))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.NoContent(http.StatusNoContent)
}
