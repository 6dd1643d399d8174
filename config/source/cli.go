package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/skekre98/sundry/config"
)

// CLISource loads configuration from dot-notated command-line flags:
//
//	--server.addr=:9090 --logging.level debug
//	  -> {server: {addr: ":9090"}, logging: {level: "debug"}}
//
// Both --flag=value and --flag value work, as does a single dash. Empty
// values and positional arguments are ignored. Put CLISource last so flags
// override every other layer.
type CLISource struct {
	// Args are the arguments to parse. Nil means os.Args[1:].
	Args []string
}

func (c *CLISource) Name() string { return "cli" }

// Load never fails; unparseable flags are ignored.
func (c *CLISource) Load(ctx context.Context) (map[string]any, error) {
	args := c.Args
	if args == nil {
		args = os.Args[1:]
	}
	return parseCliFlags(args), nil
}

// Watch is a no-op; arguments are fixed for the process lifetime.
func (c *CLISource) Watch(ctx context.Context, ch chan<- config.Event) error {
	return nil
}

func parseCliFlags(raw []string) map[string]any {
	result := make(map[string]any)
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true

	args := normalizeArgs(raw)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name := extractFlagName(arg)
		if name == "" {
			continue
		}
		if fs.Lookup(name) == nil {
			fs.String(name, "", fmt.Sprintf("Config value for %s", name))
		}

		if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}

	_ = fs.Parse(args)

	fs.VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			return
		}
		if value := flag.Value.String(); value != "" {
			setNestedValue(result, strings.Split(flag.Name, "."), value)
		}
	})

	return result
}

// normalizeArgs turns single-dash long flags into double-dash ones for pflag.
func normalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg
		if strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") {
			rest := strings.TrimPrefix(arg, "-")
			if len(rest) > 1 && rest[0] != '=' {
				out[i] = "-" + arg
			}
		}
	}
	return out
}

// extractFlagName strips dashes and any "=value" suffix.
func extractFlagName(arg string) string {
	arg = strings.TrimLeft(arg, "-")
	if idx := strings.Index(arg, "="); idx != -1 {
		return arg[:idx]
	}
	return arg
}
