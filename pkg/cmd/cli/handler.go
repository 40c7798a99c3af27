package cli

import "github.com/oneilljw/homecontrol/config"

// Handler bundles the handlers of the maintenance commands.
type Handler struct {
	Migration *MigrateHandler
}

func NewHandler(c *config.Config) *Handler {
	return &Handler{
		Migration: newMigrateHandler(c),
	}
}
