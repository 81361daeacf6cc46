package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sangwon4052/sangwon-sign-off/internal/client"
	"github.com/sangwon4052/sangwon-sign-off/internal/output"
	"github.com/sangwon4052/sangwon-sign-off/internal/refresh"
	"github.com/spf13/cobra"
)

func newDashboardCmd(app *App) *cobra.Command {
	var (
		watch      bool
		interval   time.Duration
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show counters for your role and the latest requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			if !watch {
				d, err := app.Client.Dashboard(cmd.Context())
				if err != nil {
					return explain("loading dashboard", err)
				}
				app.renderDashboard(d)
				return nil
			}
			return app.watchDashboard(cmd.Context(), interval, iterations)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", refresh.DefaultInterval, "Refresh interval with --watch")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Stop after this many refreshes (0 = until interrupted)")
	return cmd
}

func (a *App) renderDashboard(d *client.Dashboard) {
	if a.JSON {
		output.JSON(a.Out, d)
		return
	}
	output.Dashboard(a.Out, *d)
}

// watchDashboard runs the refresh loop until ctx ends, the requested number
// of refreshes has been shown, or the session stops being valid.
func (a *App) watchDashboard(ctx context.Context, interval time.Duration, iterations int) error {
	var (
		shown    int
		finished = make(chan struct{})
		expired  = make(chan struct{})
		doneOnce sync.Once
		expOnce  sync.Once
	)

	loop := refresh.New[*client.Dashboard](interval, func(ctx context.Context) (*client.Dashboard, error) {
		return a.Client.Dashboard(ctx)
	}, refresh.WithUpdate(func(d *client.Dashboard) {
		if iterations > 0 && shown >= iterations {
			return
		}
		if shown > 0 && !a.JSON {
			fmt.Fprintln(a.Out)
		}
		if !a.JSON {
			fmt.Fprintf(a.Out, "Updated %s\n", d.GeneratedAt.Local().Format(time.TimeOnly))
		}
		a.renderDashboard(d)
		shown++
		if iterations > 0 && shown >= iterations {
			doneOnce.Do(func() { close(finished) })
		}
	}), refresh.WithError[*client.Dashboard](func(err error) {
		if isUnauthorized(err) {
			expOnce.Do(func() { close(expired) })
			return
		}
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(a.Err, "refresh failed: %v\n", err)
		}
	}))

	a.setWatch(loop)
	if err := loop.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-finished:
	case <-expired:
		a.Close()
		if err := a.signOut(); err != nil {
			return err
		}
		return errors.New(`session expired, run "signoff login" again`)
	}
	a.Close()
	return nil
}
