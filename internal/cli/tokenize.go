package cli

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/gregLibert/emv-qr/pkg/tlv"
)

func newTokenizeCommand(opts *options, s Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize [payload]",
		Short: "List the top-level TLV entries of a payload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := opts.setup(s, nil)
			if err != nil {
				return err
			}

			input, err := readInput(args, s.In)
			if err != nil {
				return err
			}

			res := tlv.Scan(newDecoder(log).Normalize(input))
			for _, e := range res.Entries {
				if _, err := fmt.Fprintf(s.Out, "%s %02d %s\n", e.ID, e.Len, e.Value); err != nil {
					return errors.Trace(err)
				}
			}
			if res.Break != nil {
				fmt.Fprintf(s.Err, "warning: %v\n", res.Break)
			}
			if len(res.Entries) == 0 {
				return errors.NotFoundf("TLV entries in input")
			}
			return nil
		},
	}
}
