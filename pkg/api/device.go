package api

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/oneilljw/homecontrol/pkg/api/resource"
)

func (h *Handler) handleGetDevice(c echo.Context) error {
	return c.JSON(http.StatusOK, resource.NewGarageDoor(h.device.State()))
}
