package cli

import (
	"testing"

	"github.com/oneilljw/homecontrol/config"
	"github.com/stretchr/testify/assert"
)

func TestDatabaseURLPrefersArgument(t *testing.T) {
	h := newMigrateHandler(&config.Config{DatabaseURL: "postgres://configured"})

	assert.Equal(t, "postgres://arg", h.databaseURL([]string{"postgres://arg"}, 0))
	assert.Equal(t, "postgres://configured", h.databaseURL(nil, 0))
	assert.Equal(t, "postgres://configured", h.databaseURL([]string{""}, 0))
}

func TestDatabaseURLMissing(t *testing.T) {
	h := newMigrateHandler(&config.Config{})
	assert.Equal(t, "", h.databaseURL(nil, 0))
}
