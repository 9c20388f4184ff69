package main

import (
	"github.com/fleetyard/truckplan-go/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
