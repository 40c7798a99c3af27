package cmd

import (
	"github.com/oneilljw/homecontrol/pkg/cmd/server"
	"github.com/spf13/cobra"
)

// serveControlServerCmd represents the serve controlserver command
var serveControlServerCmd = &cobra.Command{
	Use:   "controlserver",
	Short: "Serve the home control server and its operator API",
	Run:   server.RunServeControlServer(c),
}

func init() {
	serveCmd.AddCommand(serveControlServerCmd)
}
