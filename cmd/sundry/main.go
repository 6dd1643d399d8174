// Command sundry exposes the helper packages as subcommands and, with
// "serve", as an HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/skekre98/sundry/config"
	"github.com/skekre98/sundry/logging"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logging.New(config.LoggingConfig{Level: "info", Format: "text"}).Error("sundry failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usage(out, "")
	}

	name, rest := args[0], args[1:]
	if name == "help" || name == "-h" || name == "--help" {
		topic := ""
		if len(rest) > 0 {
			topic = rest[0]
		}
		return usage(out, topic)
	}

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, see 'sundry help'", name)
	}
	return cmd.run(ctx, rest, out)
}
