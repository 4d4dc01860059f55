package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the daemon is up and its plugins are ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Health(cmd.Context())
			if err != nil {
				return wrapClientError(err, client.BaseURL())
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			kind := statusOK
			if resp.Status != "ok" {
				kind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Server", kind, client.BaseURL(), colorize))
			for _, component := range resp.Components {
				componentKind := statusOK
				if !component.Ready {
					componentKind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(titleCase(component.Name), componentKind, component.Detail, colorize))
			}
			return nil
		},
	}
}
