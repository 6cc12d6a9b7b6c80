package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kaelemc/clabedit/config"
	"github.com/kaelemc/clabedit/editor"
	"github.com/kaelemc/clabedit/host"
	"github.com/kaelemc/clabedit/surface"
)

func editCmd() *cobra.Command {
	var viewOnly bool
	var deployed bool

	cmd := &cobra.Command{
		Use:   "edit <lab.clab.yml>",
		Short: "Open a topology file in the interactive editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := labArg(args)
			if err != nil {
				return err
			}
			return runEditor(path, viewOnly, deployed)
		},
	}
	cmd.Flags().BoolVar(&viewOnly, "view", false, "open read-only inspectors instead of edit mode")
	cmd.Flags().BoolVar(&deployed, "deployed", false, "treat the lab as deployed (mutations locked)")
	return cmd
}

func runEditor(path string, viewOnly, deployed bool) error {
	cfg := config.Load()
	log, closeLog, err := sessionLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	// The terminal belongs to the TUI, so outbound messages go to the log.
	h := host.New(path, host.LogSender{Log: log}, log)

	tui, err := surface.New(log)
	if err != nil {
		return err
	}
	defer tui.Close()

	ed, err := editor.New(editor.Options{
		Surface:          tui,
		Saver:            h,
		Scheduler:        editor.WallClock{},
		RunOn:            tui.Post,
		Logger:           log,
		EndpointPatterns: cfg.Endpoints,
		QuietPeriod:      cfg.QuietPeriod(),
		GracePeriod:      cfg.GracePeriod(),
		HistoryDepth:     cfg.History.Depth,
	})
	if err != nil {
		return err
	}
	h.Bind(ed)
	h.SetRunOn(tui.Post)

	mode := "edit"
	if viewOnly {
		mode = "view"
	}
	snap, env, err := h.LoadInitial(mode)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	ed.Reload(snap)
	if viewOnly {
		ed.SetMode(editor.ModeView)
	}
	if deployed {
		ed.SetDeploymentState(true)
	}
	h.AnnounceTopology(snap, env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := h.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Warn("lab file watcher stopped", "error", err)
		}
	}()

	tui.Attach(ed)
	return tui.Run()
}

// sessionLogger writes structured logs to a file under the config dir; the
// terminal itself is occupied by the editor.
func sessionLogger() (*slog.Logger, func(), error) {
	dir := config.ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "clabedit.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return log, func() { f.Close() }, nil
}
