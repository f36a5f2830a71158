package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoverse/eqsat"
)

// debounce folds the burst of events an editor save produces into one run.
const debounce = 100 * time.Millisecond

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch -f FILE",
		Short: "Re-run a batch file every time it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchFile == "" {
				return errors.New("please provide a batch file with --file")
			}
			engine, cfg, err := loadEngine(cmd)
			if err != nil {
				return err
			}

			rc, err := openCache()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			run := func() {
				results, err := eqsat.ProcessFile(ctx, logger, engine, batchFile, eqsat.ProcessOptions{
					Workers: cfg.Workers,
					Cache:   rc,
				})
				flushCache(rc)
				if err != nil {
					logger.Error("Error processing batch file", zap.String("file", batchFile), zap.Error(err))
					return
				}
				fmt.Fprintf(out, "%s %s\n", arrowStyle.Sprint("==>"), inputStyle.Sprint(batchFile))
				for _, r := range results {
					fmt.Fprint(out, formatResult(r, details, verify))
				}
			}

			run()
			return watchFile(ctx, logger, batchFile, run)
		},
	}
	addJobFlags(cmd)
	return cmd
}

// watchFile calls onChange after each write to path until ctx is done. It
// watches the parent directory so editors that replace the file on save
// are followed.
func watchFile(ctx context.Context, logger *zap.Logger, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("error adding directory to watcher: %w", err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", zap.Error(err))
		}
	}
}
