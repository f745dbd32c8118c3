package cmd

import (
	"fmt"
	"time"

	"github.com/fleetwatch/sentinel/app/safeguard"
)

var snapshotCommand = Command{
	Description: "Take a manual snapshot of the current config.",

	Target: func(opts Options) error {
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}

		sg, err := newSafeguardModule(cfg)
		if err != nil {
			return err
		}
		defer sg.Close()

		path, err := sg.Snapshot(safeguard.ReasonManual, time.Now())
		if err != nil {
			return err
		}

		fmt.Printf("snapshot written to %s\n", path)
		return nil
	},
}
