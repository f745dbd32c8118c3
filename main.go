package main

import (
	"fmt"
	"os"

	"github.com/fleetwatch/sentinel/app/cmd"
)

func main() {
	setUmask()

	if err := cmd.Main.Execute(os.Args[1:], nil); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}
