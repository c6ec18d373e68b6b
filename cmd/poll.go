package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/preferredrecruit/intake-gateway/internal/config"
	"github.com/preferredrecruit/intake-gateway/internal/poller"
)

// pollCmd mirrors the wait page an athlete lands on after submitting a form:
// it polls the status endpoint and prints the redirect decision. Useful for
// smoke-testing the bridge end to end.
var pollCmd = &cobra.Command{
	Use:   "poll <submission-id>",
	Short: "Poll the status bridge for a submission and print the redirect decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		baseURL, _ := cmd.Flags().GetString("base-url")
		if baseURL == "" {
			baseURL = "http://localhost" + cfg.HTTP.Addr
		}

		p := poller.New(poller.Config{
			Interval:      cfg.Poller.Interval,
			Timeout:       cfg.Poller.Timeout,
			PosterURL:     cfg.Redirects.PosterURL,
			SchedulingURL: cfg.Redirects.SchedulingURL,
		}, poller.HTTPQuery(baseURL, http.DefaultClient))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		decision, err := p.Run(ctx, args[0])
		if err != nil {
			return err
		}

		switch decision.State {
		case poller.StateRedirecting:
			fmt.Println("redirect:", decision.URL)
		case poller.StateError:
			fmt.Fprintln(os.Stderr, "status bridge unreachable; manual fallback:", decision.URL)
		}
		return nil
	},
}

func init() {
	pollCmd.Flags().String("base-url", "", "gateway base URL (default: local http addr)")
}
