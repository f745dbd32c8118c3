package cmd

import (
	"context"
	"fmt"
)

const rollbackSnapshotOption = "snapshot"

var rollbackCommand = Command{
	Description: "Roll the config back to a snapshot.",

	Options: []Option{
		{
			Name:  rollbackSnapshotOption,
			Short: "f",
			Help:  "Path of the snapshot to restore. Defaults to the armed ticket's snapshot, or the newest snapshot on disk.",
		},
	},

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

		if err := sg.Rollback(context.Background(), opts[rollbackSnapshotOption]); err != nil {
			return err
		}

		fmt.Println("config rolled back")
		return nil
	},
}
