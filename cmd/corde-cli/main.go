package main

import (
	"corde-harvester/cmd/corde-cli/commands"
	"corde-harvester/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
