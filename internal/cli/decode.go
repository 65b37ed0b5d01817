package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/gregLibert/emv-qr/internal/config"
	"github.com/gregLibert/emv-qr/pkg/display"
	"github.com/gregLibert/emv-qr/pkg/emv"
	"github.com/gregLibert/emv-qr/pkg/tlv"
)

func newDecodeCommand(opts *options, s Streams) *cobra.Command {
	var (
		output string
		get    string
	)

	cmd := &cobra.Command{
		Use:   "decode [payload]",
		Short: "Decode a payload, URL or base64 string (read from stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup(s, func(c *config.Config) {
				if cmd.Flags().Changed("output") {
					c.Output = output
				}
			})
			if err != nil {
				return err
			}

			input, err := readInput(args, s.In)
			if err != nil {
				return err
			}

			qr := newDecoder(log).Decode(input)

			if get != "" {
				err = writePath(s.Out, qr, get)
			} else {
				err = writeRecord(s.Out, qr, cfg.Output)
			}
			if err != nil {
				return err
			}

			if qr.IsEmpty() {
				return errors.NotFoundf("EMV data in input")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", config.DefaultOutput, "output format: text, json or yaml")
	cmd.Flags().StringVar(&get, "get", "", "print a single value selected by a gjson path (e.g. keyInfo.value)")
	return cmd
}

func writeRecord(w io.Writer, qr *emv.ParsedQR, format string) error {
	switch format {
	case config.OutputJSON:
		data, err := json.MarshalIndent(qr, "", "  ")
		if err != nil {
			return errors.Annotate(err, "encode json")
		}
		_, err = fmt.Fprintln(w, string(data))
		return errors.Trace(err)
	case config.OutputYAML:
		data, err := yaml.Marshal(qr)
		if err != nil {
			return errors.Annotate(err, "encode yaml")
		}
		_, err = w.Write(data)
		return errors.Trace(err)
	default:
		_, err := fmt.Fprintln(w, describe(qr))
		return errors.Trace(err)
	}
}

// describe appends the localized amount and grouped key to the record report.
func describe(qr *emv.ParsedQR) string {
	var sb strings.Builder
	sb.WriteString(qr.Describe())

	var lines []string
	if amount := display.Amount(qr); amount != "" {
		lines = append(lines, tlv.Line("Display", "Amount", amount))
	}
	if qr.Key != nil {
		lines = append(lines, tlv.Line("Display", "Key", display.FormatKey(qr.Key.Value)))
	}
	if len(lines) > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Join(lines, "\n"))
	}
	return sb.String()
}

func writePath(w io.Writer, qr *emv.ParsedQR, path string) error {
	data, err := json.Marshal(qr)
	if err != nil {
		return errors.Annotate(err, "encode json")
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return errors.NotFoundf("path %q", path)
	}
	_, err = fmt.Fprintln(w, res.String())
	return errors.Trace(err)
}
