package main

import (
	"civicsearch-backend/cmd/extract-cli/commands"
	"civicsearch-backend/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
