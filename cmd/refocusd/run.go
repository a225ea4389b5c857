package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"refocusd/internal/align"
	"refocusd/internal/config"
	"refocusd/internal/engine"
	"refocusd/internal/intervene"
	"refocusd/internal/notify"
	"refocusd/internal/profile"
	"refocusd/internal/source"
	"refocusd/internal/store"
)

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".refocusd", "config.yaml")
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon loop, reading observations as JSON lines on stdin",
		Long: `Run the closed loop: the capture agent pipes one JSON observation
per line into stdin; refocusd classifies it against the day's commitment,
detects distraction patterns, intervenes through the configured notifier,
and adapts its strategy from your responses.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			profiles := profile.NewFileStore(cfg.ProfilePath)
			if err := profiles.Load(); err != nil {
				if !os.IsNotExist(err) {
					return fmt.Errorf("load profile: %w", err)
				}
				log.Printf("[MAIN] no profile at %s; observing without personalization", cfg.ProfilePath)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			classifier, cache := buildClassifier(cfg, profiles)

			// Pick up commitment and glob edits made while running. The
			// verdict cache is flushed so a new distraction glob applies
			// to windows it already classified.
			watcher, err := profile.NewWatcher(profiles, func(p profile.Profile) {
				cache.Purge()
				log.Printf("[MAIN] profile reloaded, commitment %q", p.Commitment.Text)
			})
			if err == nil {
				if err := watcher.Start(ctx); err != nil {
					log.Printf("[MAIN] profile watcher: %v", err)
				} else {
					defer watcher.Stop()
				}
			}

			deps := engine.Deps{
				Source:     source.NewStamped(source.NewReader(cmd.InOrStdin()), time.Now),
				Classifier: classifier,
				Store:      st,
				Profiles:   profiles,
				Notifier:   buildNotifier(cfg),
			}
			eng := engine.New(engine.Config{
				PollInterval:  cfg.PollInterval(),
				Lookback:      cfg.Lookback(),
				RetentionDays: cfg.Engine.RetentionDays,
			}, deps)

			log.Printf("[MAIN] refocusd running: db=%s profile=%s poll=%s",
				cfg.DatabasePath, cfg.ProfilePath, cfg.PollInterval())
			return eng.Run(ctx)
		},
	}
}

// buildClassifier assembles the alignment stack: keyword floor, TTL
// cache, and fail-open wrapping so a classifier problem never blocks
// the loop. An AI-backed primary would slot in ahead of the keyword
// classifier here. Globs are read from the profile store per call, so
// hot-reloaded edits take effect. The cache is returned for the
// reload hook to flush.
func buildClassifier(cfg *config.Config, profiles *profile.FileStore) (align.Classifier, *align.Cached) {
	keyword := align.NewKeywordSource(func() []string {
		if p, ok := profiles.Get(); ok {
			return p.Patterns.DistractionGlobs
		}
		return nil
	})
	cached := align.NewCached(keyword, cfg.Align.CacheSize, cfg.CacheTTL())
	return align.NewResilient(cached, keyword), cached
}

// buildNotifier picks the agent socket when configured, else the
// terminal. Stdin carries the observation stream, so terminal prompts
// read from the controlling tty.
func buildNotifier(cfg *config.Config) intervene.Notifier {
	if cfg.Notify.Socket != "" {
		return notify.NewAgent(cfg.Notify.Socket, cfg.ResponseTimeout())
	}
	if tty, err := os.Open("/dev/tty"); err == nil {
		return notify.NewTerminal(tty, os.Stdout, cfg.ResponseTimeout())
	}
	return notify.NewTerminal(os.Stdin, os.Stdout, cfg.ResponseTimeout())
}
