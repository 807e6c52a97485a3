package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapmesh-go/internal/infra/confloader"
	"github.com/yndnr/snapmesh-go/internal/infra/shutdown"
	"github.com/yndnr/snapmesh-go/internal/storage"
	"github.com/yndnr/snapmesh-go/internal/storage/snapshot"
)

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Print a summary whenever a baseline file changes",
		Action: watch,
	}
}

func watch(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Storage.Backend == storage.KindBadger {
		return cli.Exit("watch requires the file storage backend", 2)
	}
	dir := e.cfg.Snapshot.Dir
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return cli.Exit(fmt.Sprintf("snapshot dir %s does not exist", dir), 1)
	}

	w, err := confloader.NewWatcher(
		confloader.WithWatcherLogger(e.log),
		confloader.WithWatcherFilter(func(path string) bool {
			_, ok := e.store.GroupOf(path)
			return ok
		}),
	)
	if err != nil {
		return err
	}
	if err := w.Watch(dir); err != nil {
		w.Stop()
		return err
	}

	var mu sync.Mutex
	w.OnChange(func(path string) {
		group, _ := e.store.GroupOf(path)
		line := describeChange(e.store, group)
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(c.App.Writer, line)
	})
	w.StartAsync()
	fmt.Fprintf(c.App.ErrWriter, "watching %s\n", dir)

	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown(func(_ context.Context) error { return w.Stop() })
	return h.Wait(c.Context)
}

// describeChange re-reads the group and summarizes its state.
func describeChange(store *snapshot.Store, group string) string {
	content, err := store.Inspect(group)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Sprintf("removed\t%s", group)
	case err != nil:
		return fmt.Sprintf("invalid\t%s\t%v", group, err)
	default:
		return fmt.Sprintf("changed\t%s\t%d snapshots", group, snapshotCount(content.Keys()))
	}
}
