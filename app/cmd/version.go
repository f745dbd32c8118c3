package cmd

import (
	"fmt"

	"github.com/fleetwatch/sentinel/app"
)

var versionCommand = Command{
	Description: "Supervisor version.",
	Target: func(opts Options) error {
		if app.Commit == "" {
			fmt.Println(app.Version)
			return nil
		}

		fmt.Printf("%s (commit: %s)\n", app.Version, app.Commit)
		return nil
	},
}
