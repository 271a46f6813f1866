package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func sweepCmd(configPath *string) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run every user with due schedules once and exit",
		Long: `Run every user with due schedules once and exit.

Suitable for an external scheduler such as a Kubernetes CronJob. Exits non-zero
if the user listing fails; individual user failures are reported in the summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			at := a.coordinator.Now()
			if asOf != "" {
				if at, err = time.Parse(time.RFC3339, asOf); err != nil {
					return errors.Wrap(err, "invalid --as-of")
				}
			}

			summary, err := a.coordinator.Sweep(ctx, at)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "sweep as of this RFC 3339 time instead of now")
	return cmd
}
