package api

import (
	"encoding/json"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo"
	"github.com/oneilljw/homecontrol/pkg/api/resource"
	log "github.com/sirupsen/logrus"
)

const realtimeBufferSize = 64

func (h *Handler) realtimeEventsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			log.Error("api: failed to upgrade to websocket: ", err)
			return nil
		}
		defer conn.Close()

		evCh, cancel := h.hub.Subscribe(realtimeBufferSize)
		defer cancel()

		// The reader only watches for the peer going away
		closedCh := make(chan struct{})
		go func() {
			defer close(closedCh)
			for {
				if _, _, err := wsutil.ReadClientData(conn); err != nil {
					return
				}
			}
		}()

		ctx := c.Request().Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-closedCh:
				return nil
			case ev, ok := <-evCh:
				if !ok {
					return nil
				}

				out, err := json.Marshal(resource.NewRealtimeEvent(ev))
				if err != nil {
					log.Error("api: failed to marshal realtime event: ", err)
					continue
				}
				if err := wsutil.WriteServerMessage(conn, ws.OpText, out); err != nil {
					log.Error("api: failed to send realtime event: ", err)
					return nil
				}
			}
		}
	}
}
