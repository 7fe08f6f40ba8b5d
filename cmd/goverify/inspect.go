package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	goVerify "github.com/MrEthical07/goVerify"
)

const unverifiedWarning = "WARNING: signature NOT verified; do not trust these contents"

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token|->",
		Short: "Print a token's header and payload without verifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd, args[0])
			if err != nil {
				return err
			}

			d, err := goVerify.DecodeUnverified(token)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "cannot decode token: %s\n", goVerify.KindOf(err))
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), unverifiedWarning)
			out, err := json.MarshalIndent(struct {
				Header  map[string]any `json:"header"`
				Payload map[string]any `json:"payload"`
			}{d.Header, d.Claims}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
