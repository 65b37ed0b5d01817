// Package cli implements the emvqr command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/astaxie/beego/logs"
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/gregLibert/emv-qr/internal/config"
	"github.com/gregLibert/emv-qr/internal/logging"
	"github.com/gregLibert/emv-qr/pkg/emv"
)

// Streams are the I/O endpoints of a command run.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type options struct {
	configPath string
	logLevel   string
}

// Run executes the command line args and returns the process exit code.
func Run(ctx context.Context, args []string, s Streams) int {
	root := NewRootCommand(s)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(s.Err, "error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the emvqr command tree bound to s.
func NewRootCommand(s Streams) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "emvqr",
		Short:         "Decode EMV merchant-presented QR payloads",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "INI configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides the config file)")

	root.AddCommand(
		newDecodeCommand(opts, s),
		newTokenizeCommand(opts, s),
		newServeCommand(opts, s),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (o *options) setup(s Streams, override func(*config.Config)) (*config.Config, *logs.BeeLogger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Trace(err)
	}

	log, err := logging.New(cfg.LogLevel, s.Err)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return cfg, log, nil
}

// readInput returns the first argument, or all of stdin when there is none.
func readInput(args []string, in io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", errors.Annotate(err, "read stdin")
	}
	input := strings.TrimSpace(string(data))
	if input == "" {
		return "", errors.NotValidf("empty input")
	}
	return input, nil
}

func newDecoder(log *logs.BeeLogger) *emv.Decoder {
	return emv.NewDecoder(emv.WithLogger(log))
}
