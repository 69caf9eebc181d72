package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/f3rmion/tau/identity"
	"github.com/f3rmion/tau/session"
)

func newStartCommand() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the ceremony",
		Long: `Sign in, wait in the lobby for a turn and contribute.

Press Ctrl-C to leave the lobby. Once a batch has been assigned the
contribution is computed to the end; an interrupt then releases the turn
instead of submitting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			switch provider {
			case "", ProviderGitHub, ProviderEthereum:
			default:
				return fmt.Errorf("--provider must be %q or %q", ProviderGitHub, ProviderEthereum)
			}

			stop := a.serveMetrics(cmd.ErrOrStderr())
			defer stop()

			resolver := &identity.GitHubResolver{
				BaseURL: a.cfg.GitHubAPIURL,
				Logger:  a.logger.Named("identity"),
			}
			auth := newPromptAuthenticator(cmd.InOrStdin(), cmd.OutOrStdout(), provider)
			sess := session.New(a.client, auth, session.Config{
				PollInterval:   a.cfg.PollInterval,
				RequestTimeout: a.cfg.RequestTimeout,
				AbortTimeout:   a.cfg.AbortTimeout,
				Workers:        a.cfg.Workers,
				Resolver:       resolver,
				Logger:         a.logger.Named("session"),
				Metrics:        a.metrics,
			})

			receipt, err := sess.Run(cmd.Context())
			if err != nil {
				var aerr *session.AbortError
				if errors.As(err, &aerr) && aerr.Notify == nil {
					a.logger.Info("left the ceremony", zap.Stringer("state", aerr.State))
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Contribution accepted for %s\n", sess.Identity())
			fmt.Fprintf(out, "Receipt: %s\n", receipt.Receipt)
			fmt.Fprintf(out, "Signature: %s\n", receipt.Signature)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "sign-in provider (github, ethereum); asked interactively when empty")
	return cmd
}
