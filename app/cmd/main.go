// Package cmd implements the supervisor's command-line surface: start,
// stop, status, confirm, rollback, snapshot and version.
package cmd

import (
	"github.com/fleetwatch/sentinel/app/log"
	"github.com/fleetwatch/sentinel/app/supervisor"
)

const (
	mainConfigDirOption = "config-dir"
	mainStateDirOption  = "state-dir"
	mainLogLevel        = "log-level"
)

const (
	DefaultConfigDir = "/etc/sentinel"
	DefaultStateDir  = "/var/lib/sentinel"
)

var Main = Command{
	Description: "Gateway reliability supervisor command-line tool",
	Options: []Option{
		{
			Name:    mainConfigDirOption,
			Short:   "c",
			Help:    "Configuration directory.",
			Default: DefaultConfigDir,
		},
		{
			Name:    mainStateDirOption,
			Short:   "s",
			Help:    "State directory.",
			Default: DefaultStateDir,
		},
		{
			Name:    mainLogLevel,
			Short:   "l",
			Help:    "Logging level: DEBUG, INFO, WARNING or ERROR.",
			Default: "INFO",
		},
	},
	SubCommands: map[string]Command{
		"start":    startCommand,
		"stop":     stopCommand,
		"status":   statusCommand,
		"confirm":  confirmCommand,
		"rollback": rollbackCommand,
		"snapshot": snapshotCommand,
		"version":  versionCommand,
	},
}

// loadConfig loads the supervisor config based on the global command-line
// options and applies the requested log level.
func loadConfig(opts Options) (*supervisor.Config, error) {
	switch opts[mainLogLevel] {
	case "DEBUG":
		log.SetLevel(log.DEBUG)
	case "INFO":
		log.SetLevel(log.INFO)
	case "WARNING":
		log.SetLevel(log.WARNING)
	case "ERROR":
		log.SetLevel(log.ERROR)
	}

	return supervisor.LoadConfig(opts[mainConfigDirOption], opts[mainStateDirOption])
}
