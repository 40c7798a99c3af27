package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/oneilljw/homecontrol/config"
	"github.com/oneilljw/homecontrol/pkg/cmd/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var c = new(config.Config)
var cmdHandler = cli.NewHandler(c)

var (
	Version   = "dev-master"
	BuildTime = "undefined"
	GitHash   = "undefined"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "homecontrol",
	Short: "Home Control Server (garage door control over TCP)",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cmd.UsageString())
		os.Exit(2)
	},
}

// Execute runs the root command and is called by main.main()
func Execute() {
	c.BuildTime = BuildTime
	c.BuildVersion = Version
	c.BuildHash = GitHash

	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.homecontrol.yml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	} else {
		path := absPathify("$HOME")
		if _, err := os.Stat(filepath.Join(path, ".homecontrol.yml")); err != nil {
			_, _ = os.Create(filepath.Join(path, ".homecontrol.yml"))
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(".homecontrol") // name of config file (without extension)
		viper.AddConfigPath("$HOME")        // adding home directory as first search path
	}
	viper.AutomaticEnv() // read in environment variables that match

	// Fetch settings
	setDefault("HOST", "")
	setDefault("PORT", 8901)
	setDefault("API_PORT", 4001)
	setDefault("LOG_LEVEL", "info")

	setDefault("USER_ID", "john")
	setDefault("PASSWORD", "erin1992")

	setDefault("SWEEP_INTERVAL", time.Minute)
	setDefault("INACTIVE_LIMIT", 3*time.Minute)
	setDefault("TERMINAL_LIMIT", 10*time.Minute)

	setDefault("DEVICE_URL", "http://arduino.local/arduino")
	setDefault("DEVICE_TIMEOUT", 5*time.Second)
	setDefault("POLL_INTERVAL", 3*time.Second)

	// Empty urls disable PostgreSQL and NATS
	setDefault("DATABASE_URL", "")
	setDefault("NATS_URL", "")
	setDefault("EVENT_LOG_SIZE", 256)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf(`Config file not found because "%s"`, err)
		fmt.Println("")
	}

	if err := viper.Unmarshal(c); err != nil {
		log.Fatal(fmt.Sprintf("Could not read config because %s.", err))
	}
}

func setDefault(key string, value interface{}) {
	viper.BindEnv(key)
	viper.SetDefault(key, value)
}

func absPathify(inPath string) string {
	if strings.HasPrefix(inPath, "$HOME") {
		inPath = userHomeDir() + inPath[5:]
	}

	if strings.HasPrefix(inPath, "$") {
		end := strings.Index(inPath, string(os.PathSeparator))
		inPath = os.Getenv(inPath[1:end]) + inPath[end:]
	}

	if filepath.IsAbs(inPath) {
		return filepath.Clean(inPath)
	}

	p, err := filepath.Abs(inPath)
	if err == nil {
		return filepath.Clean(p)
	}
	return ""
}

func userHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		if home == "" {
			home = os.Getenv("USERPROFILE")
		}
		return home
	}
	return os.Getenv("HOME")
}
