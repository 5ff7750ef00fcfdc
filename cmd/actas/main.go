// Command actas captures, seals and archives signed site-visit records.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	// Timezone lookups must work on hosts without a zoneinfo database.
	_ "time/tzdata"

	"github.com/roach88/actas/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return
	}

	// ExitErrors have already been reported through the output formatter.
	// Anything else is a usage error from flag or argument parsing.
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(cli.ExitCommandError)
}
