package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get ceremony status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			status, err := a.client.Status(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "### Ceremony status ###")
			fmt.Fprintf(out, "Lobby size: %d\n", status.LobbySize)
			fmt.Fprintf(out, "No. of contributions: %d\n", status.NumContributions)
			fmt.Fprintf(out, "Sequencer address: %s\n", strings.ToLower(status.SequencerAddress))
			return nil
		},
	}
}

func newCurrentStateCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "current-state",
		Short: "Request the current transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			state, err := a.client.CurrentState(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}

			fmt.Fprintf(out, "Participants: %d\n", len(state.ParticipantIDs))
			for i, tr := range state.Transcripts {
				fmt.Fprintf(out, "Transcript %d: %d G1 powers, %d G2 powers, %d contributions\n",
					i, tr.NumG1Powers, tr.NumG2Powers, len(tr.Witness.PotPubkeys))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "json", false, "print the full transcript as JSON")
	return cmd
}
