package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/harrison/binmeta/internal/vault"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errWatcherStopped = errors.New("vault watcher stopped")

// NewWatchCommand creates the 'binmeta watch' command
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Generate metadata notes for new binary files as they appear",
		Long: `Watch the vault and create a metadata note whenever a file with a watched
extension is added. Deleted files are dropped from the registry; their
notes are kept.

On startup the registry is reconciled against the files currently in the
vault. With auto_detection set to false events are logged but no notes
are generated.

The command runs until interrupted (SIGINT/SIGTERM).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			return runWatch(ctx, s, cmd.OutOrStdout(), nil)
		},
	}
}

// runWatch arms the watcher, reconciles the registry and handles events
// until ctx is done. ready, when non-nil, is closed once events are being
// consumed.
func runWatch(ctx context.Context, s *session, output io.Writer, ready chan<- struct{}) error {
	w, err := vault.NewWatcher(s.vault)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Close()

	removed, err := s.pipeline.Reconcile(ctx)
	if errors.Is(err, vault.ErrPartialScan) {
		s.logger.LogWarn(fmt.Sprintf("registry not reconciled: %v", err))
	} else if err != nil {
		return err
	}

	state := "on"
	if !s.cfg.AutoDetection {
		state = "off"
	}
	fmt.Fprintf(output, "Watching %s (auto detection %s, %d registered, %d stale entries dropped)\n",
		s.root, state, s.registry.Len(), len(removed))
	fmt.Fprintln(output, "Press Ctrl+C to stop...")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-w.Events():
				if !ok {
					return errWatcherStopped
				}
				s.logger.LogTrace(fmt.Sprintf("%s %s", ev.Op, ev.Path))
				if err := s.pipeline.HandleEvent(ctx, ev); err != nil {
					s.logger.LogError(err.Error())
				}
			case err, ok := <-w.Errors():
				if !ok {
					return errWatcherStopped
				}
				handleWatchError(ctx, s, err)
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		return w.Close()
	})

	if ready != nil {
		close(ready)
	}

	err = g.Wait()
	fmt.Fprintln(output, "Stopped watching")
	return err
}

// handleWatchError logs a watcher error. Lost events trigger a rescan so
// files added during the overflow still get their notes.
func handleWatchError(ctx context.Context, s *session, err error) {
	if !errors.Is(err, vault.ErrEventsLost) {
		s.logger.LogWarn(fmt.Sprintf("watcher: %v", err))
		return
	}

	s.logger.LogWarn(fmt.Sprintf("watcher: %v, rescanning vault", err))
	if _, err := s.pipeline.Reconcile(ctx); err != nil {
		s.logger.LogWarn(err.Error())
	}
	if !s.cfg.AutoDetection {
		return
	}
	summary, err := s.pipeline.GenerateAllEligible(ctx, nil)
	if err != nil {
		s.logger.LogError(err.Error())
		return
	}
	s.logger.LogInfo(fmt.Sprintf("rescan created %d of %d notes", len(summary.Generated), summary.Total))
}
