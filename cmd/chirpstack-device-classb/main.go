package main

import (
	"github.com/brocaar/chirpstack-device-classb/cmd/chirpstack-device-classb/cmd"
)

var version string // set by the compiler

func main() {
	cmd.Execute(version)
}
