package main

import (
	"context"

	"ird-scraper/cmd/ird-cli/commands"
	"ird-scraper/lib/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()
	commands.ExecuteContext(ctx)
}
