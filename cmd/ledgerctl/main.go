// Command ledgerctl verifies and repairs supplier balances and document
// sequences. Every command prints one JSON document on stdout.
//
// Exit codes: 0 clean, 1 error, 2 drift or duplicates found.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
