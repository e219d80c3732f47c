package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/gwillem/neck/internal/log"
	"github.com/gwillem/neck/pkg/robot"
)

type Options struct {
	Config   string `short:"c" long:"config" default:"neck.json" description:"Configuration file"`
	LogLevel string `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`

	Setup     SetupCommand     `command:"setup" description:"Find the neck on a serial port and write a configuration"`
	Calibrate CalibrateCommand `command:"calibrate" alias:"cal" description:"Record the current head pose as zero"`
	Run       RunCommand       `command:"run" description:"Start the control loop"`
	Info      InfoCommand      `command:"info" description:"Show configuration and current servo positions"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "neck - two-axis serial servo neck controller"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration named on the command line.
func loadConfig() (*robot.Config, error) {
	cfg, err := robot.LoadConfigFrom(opts.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mustLoadConfig is loadConfig for commands that cannot continue without one.
func mustLoadConfig() *robot.Config {
	cfg, err := loadConfig()
	if err != nil {
		log.Error("cannot load configuration", "path", opts.Config, "error", err)
		os.Stderr.WriteString("No usable configuration found. Run 'neck setup' first.\n")
		os.Exit(1)
	}
	return cfg
}
