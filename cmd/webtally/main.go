package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"webtally/internal/bootstrap"
	"webtally/internal/platform/config"
	"webtally/internal/platform/logging"
	"webtally/internal/transport/ipc"
	"webtally/internal/ui/components"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	home   string
	asJSON bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	defaultHome, _ := os.UserHomeDir()

	root := &cobra.Command{
		Use:           "webtally",
		Short:         "Track time per site, block distractions, sync with a remote tally",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.home, "home", defaultHome, "directory holding .webtally/")
	root.PersistentFlags().BoolVar(&flags.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(newDaemonCmd(flags))
	root.AddCommand(newTodayCmd(flags))
	root.AddCommand(newLedgerCmd(flags))
	root.AddCommand(newBlockCmd(flags))
	root.AddCommand(newSitesCmd(flags))
	root.AddCommand(newFocusCmd(flags))
	root.AddCommand(newReportCmd(flags))
	root.AddCommand(newSyncCmd(flags))
	root.AddCommand(newStateCmd(flags))
	root.AddCommand(newTUICmd(flags))
	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	return config.Load(flags.home)
}

func loadClient(flags *rootFlags) (*ipc.Client, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return bootstrap.NewClient(cfg), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal dashboard",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return bootstrap.RunTUI(cfg)
		},
	}
}

func newDaemonCmd(flags *rootFlags) *cobra.Command {
	daemon := &cobra.Command{Use: "daemon", Short: "Manage the tracking daemon"}

	daemon.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Log, cmd.ErrOrStderr())
			rt, err := bootstrap.NewRuntime(cfg, logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return rt.Run(ctx)
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if err := bootstrap.NewProcess(cfg).Start(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon started")
			return nil
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if err := bootstrap.NewProcess(cfg).Stop(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
			return nil
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			status, err := bootstrap.NewProcess(cfg).Status(cmd.Context())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), status)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "running=%t pid=%d socket=%s\n", status.Running, status.PID, status.SocketPath)
			if s := status.Status; s != nil {
				_, _ = fmt.Fprintf(out, "http=%s backend=%s today=%s domains=%d contexts=%d\n",
					s.HTTPAddr, s.Backend, components.Duration(s.TodaySeconds), s.TrackedDomains, s.ActiveContexts)
				_, _ = fmt.Fprintf(out, "blocking=%t focus=%t sync_needed=%t\n", s.BlockingActive, s.FocusActive, s.SyncNeeded)
			}
			return nil
		},
	})
	var logTail int
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			payload, err := bootstrap.NewProcess(cfg).Logs(logTail)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		},
	}
	logs.Flags().IntVar(&logTail, "tail", 200, "log lines to show from the end")
	daemon.AddCommand(logs)
	return daemon
}

func newTodayCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show time per site for today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			day, err := client.Today(cmd.Context())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), day)
			}
			return printDay(cmd.OutOrStdout(), day.Date, day.Total, day.Domains)
		},
	}
}

func newLedgerCmd(flags *rootFlags) *cobra.Command {
	var date string
	ledger := &cobra.Command{
		Use:   "ledger --date <YYYY-MM-DD>",
		Short: "Show time per site for a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(date) == "" {
				return fmt.Errorf("--date is required")
			}
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			day, err := client.Ledger(cmd.Context(), date)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), day)
			}
			return printDay(cmd.OutOrStdout(), day.Date, day.Total, day.Domains)
		},
	}
	ledger.Flags().StringVar(&date, "date", "", "day key")
	return ledger
}

func newBlockCmd(flags *rootFlags) *cobra.Command {
	block := &cobra.Command{Use: "block", Short: "Site blocking"}

	toggle := func(use string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: "Turn manual blocking " + use,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := loadClient(flags)
				if err != nil {
					return err
				}
				status, err := client.ToggleBlocking(cmd.Context(), enabled)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "manual=%t active=%t rules=%d\n", status.ManualEnabled, status.Active, len(status.Rules))
				return nil
			},
		}
	}
	block.AddCommand(toggle("on", true), toggle("off", false))

	block.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show blocking state and installed rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			status, err := client.Blocking(cmd.Context())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), status)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "manual=%t focus=%t active=%t backend=%s\n", status.ManualEnabled, status.FocusActive, status.Active, status.Backend)
			if status.LastError != "" {
				_, _ = fmt.Fprintf(out, "last_error=%s\n", status.LastError)
			}
			for _, rule := range status.Rules {
				_, _ = fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", rule.ID, rule.Action, rule.Domain, rule.URLFilter)
			}
			return nil
		},
	})
	block.AddCommand(&cobra.Command{
		Use:   "check <url>",
		Short: "Show what would happen to a navigation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			decision, err := client.Decide(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), decision)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", decision.Decision, decision.Host, decision.RedirectURL)
			return nil
		},
	})
	block.AddCommand(siteCmd(flags, "add <site>", "Add a site to the blocked list", "blocked", true))
	block.AddCommand(siteCmd(flags, "remove <site>", "Remove a site from the blocked list", "blocked", false))
	return block
}

func newSitesCmd(flags *rootFlags) *cobra.Command {
	sites := &cobra.Command{Use: "sites", Short: "Productive, distracting and blocked site lists"}

	sites.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show every site list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			prefs, err := client.Preferences(cmd.Context())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), prefs)
			}
			out := cmd.OutOrStdout()
			for _, list := range []struct {
				name  string
				sites []string
			}{
				{"productive", prefs.Productive.Sites},
				{"distracting", prefs.Distracting.Sites},
				{"blocked", prefs.Blocked.Sites},
			} {
				_, _ = fmt.Fprintf(out, "%s (%d)\n", list.name, len(list.sites))
				for _, site := range list.sites {
					_, _ = fmt.Fprintf(out, "  %s\n", site)
				}
			}
			return nil
		},
	})

	var list string
	add := siteCmdFor(flags, "add <site>", "Add a site to a list", &list, true)
	add.Flags().StringVar(&list, "list", "", "productive|distracting|blocked")
	remove := siteCmdFor(flags, "remove <site>", "Remove a site from a list", &list, false)
	remove.Flags().StringVar(&list, "list", "", "productive|distracting|blocked")
	sites.AddCommand(add, remove)
	return sites
}

func siteCmd(flags *rootFlags, use, short, list string, add bool) *cobra.Command {
	return siteCmdFor(flags, use, short, &list, add)
}

func siteCmdFor(flags *rootFlags, use, short string, list *string, add bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(*list) == "" {
				return fmt.Errorf("--list is required")
			}
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			call := client.RemoveSite
			if add {
				call = client.AddSite
			}
			out, err := call(cmd.Context(), *list, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out.Name, strings.Join(out.Sites, " "))
			return nil
		},
	}
}

func newFocusCmd(flags *rootFlags) *cobra.Command {
	focus := &cobra.Command{Use: "focus", Short: "Timed focus sessions"}

	var minutes int
	start := &cobra.Command{
		Use:   "start",
		Short: "Start a focus session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			session, err := client.StartFocus(cmd.Context(), minutes)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "focus until %s (%d minutes)\n", session.EndTime.Local().Format("15:04"), session.DurationMinutes)
			return nil
		},
	}
	start.Flags().IntVar(&minutes, "minutes", 25, "session length")
	focus.AddCommand(start)

	focus.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "End the focus session early",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			if _, err := client.StopFocus(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "focus session stopped")
			return nil
		},
	})
	focus.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the focus session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			session, err := client.Focus(cmd.Context())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), session)
			}
			if !session.Active {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active focus session")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "active until %s, %s remaining\n",
				session.EndTime.Local().Format("15:04"), components.Duration(session.RemainingSeconds))
			return nil
		},
	})
	return focus
}

func newReportCmd(flags *rootFlags) *cobra.Command {
	report := &cobra.Command{Use: "report", Short: "Daily productivity reports"}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			reports, err := client.Reports(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), reports)
			}
			if len(reports) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no reports")
				return nil
			}
			for _, r := range reports {
				synced := "pending"
				if !r.SyncedAt.IsZero() {
					synced = "synced"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tscore=%d\t%s\n", r.Date, components.Duration(r.TotalTime), r.ProductivityScore, synced)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 30, "max reports to show")
	report.AddCommand(list)

	report.AddCommand(&cobra.Command{
		Use:   "generate [date]",
		Short: "Build the report for a day (yesterday by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			date := ""
			if len(args) == 1 {
				date = args[0]
			}
			r, err := client.GenerateReport(cmd.Context(), date)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), r)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", r.Date, r.Summary)
			if r.NotePath != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "note=%s\n", r.NotePath)
			}
			return nil
		},
	})
	return report
}

func newSyncCmd(flags *rootFlags) *cobra.Command {
	sync := &cobra.Command{Use: "sync", Short: "Reconcile with the remote tally"}

	sync.AddCommand(&cobra.Command{
		Use:   "now",
		Short: "Run a sync immediately",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			out, err := client.SyncNow(cmd.Context())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ledger_cells=%d lists=%s reports=%d\n",
				out.LedgerCells, strings.Join(out.ListsReplaced, ","), out.ReportsSynced)
			return nil
		},
	})
	sync.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show local and remote sync state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			status, err := client.SyncStatus(cmd.Context())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), status)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "owner=%s last_sync=%s sync_needed=%t\n", status.Owner, status.LastSync.Format("2006-01-02T15:04:05Z07:00"), status.SyncNeeded)
			if status.LastError != "" {
				_, _ = fmt.Fprintf(out, "last_error=%s\n", status.LastError)
			}
			if status.Remote != nil {
				_, _ = fmt.Fprintf(out, "remote_sync_needed=%t remote_last_sync=%s\n", status.Remote.SyncNeeded, status.Remote.LastSync.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	})
	return sync
}

func newStateCmd(flags *rootFlags) *cobra.Command {
	state := &cobra.Command{Use: "state", Short: "Export or import the local state"}

	var format, output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the state document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			out, err := client.Export(cmd.Context(), format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(out.Payload)
				return err
			}
			if err := os.WriteFile(output, out.Payload, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", out.Format, output)
			return nil
		},
	}
	export.Flags().StringVar(&format, "format", "json", "json|yaml")
	export.Flags().StringVarP(&output, "out", "o", "", "file to write (stdout by default)")
	state.AddCommand(export)

	state.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Merge a state document into the local state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			client, err := loadClient(flags)
			if err != nil {
				return err
			}
			out, err := client.Import(cmd.Context(), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported ledger_cells=%d lists=%d blocking=%t\n", out.LedgerCells, out.Lists, out.BlockingEnabled)
			return nil
		},
	})
	return state
}
