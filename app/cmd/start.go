package cmd

import (
	"context"

	"github.com/fleetwatch/sentinel/app/log"
	"github.com/fleetwatch/sentinel/app/supervisor"
)

const startOnceOption = "run-once"

var startCommand = Command{
	Description: "Start the supervisor.",

	Options: []Option{
		{
			Name:  startOnceOption,
			Short: "1",
			Help:  "Run a single tick and exit.",
			Flag:  "true",
		},
	},

	Target: func(opts Options) error {
		runOnce := opts[startOnceOption] == "true"

		ctx := context.Background()

		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}

		sup, err := supervisor.New(cfg)
		if err != nil {
			return err
		}

		if runOnce {
			sup.RunOnce(ctx)
			return nil
		}

		log.Infof("sentinel %s starting", cfg.ServiceLabel)
		return sup.Run(ctx)
	},
}
