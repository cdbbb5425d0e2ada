package main

import (
	"os"

	"fueltrack/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
