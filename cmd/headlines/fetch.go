package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/paging"
	"github.com/pders01/headlines/internal/session"
)

var (
	flagPages int
	flagJSON  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print headlines without starting the UI",
	Long:  "fetch loads the first page of headlines, then keeps loading until --pages pages are in or the feed ends.",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().IntVar(&flagPages, "pages", 1, "number of pages to load")
	fetchCmd.Flags().BoolVar(&flagJSON, "json", false, "print articles as JSON")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	if flagPages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}
	setupLogging(cfg)
	defer debuglog.Close()

	registry := session.NewRegistry(newClient(cfg))
	defer registry.CloseAll()

	loader := registry.Attach(session.NewScope(), paging.FetchConfigFrom(cfg))
	items, err := collect(cmd.Context(), loader, flagPages)
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), items)
	}
	writeText(cmd.OutOrStdout(), items)
	return nil
}

// collect waits for the loader's first page and appends until pages pages
// are loaded or the feed ends.
func collect(ctx context.Context, loader *paging.Loader, pages int) ([]news.Article, error) {
	snap, err := settled(ctx, loader)
	if err != nil {
		return nil, err
	}
	if snap.Refresh.IsError() {
		return nil, snap.Refresh.Err
	}

	for loaded := 1; loaded < pages; loaded++ {
		op := loader.LoadMore()
		if !op.Started() {
			break
		}
		if err := op.Wait(ctx); err != nil {
			var loadErr *paging.LoadError
			if errors.As(err, &loadErr) {
				return nil, fmt.Errorf("loading page %d: %w", loadErr.Key, err)
			}
			return nil, err
		}
	}
	return loader.Snapshot().Items, nil
}

// settled blocks until the loader has no refresh in flight.
func settled(ctx context.Context, loader *paging.Loader) (paging.Snapshot, error) {
	ch := make(chan paging.Snapshot, 1)
	id := loader.Subscribe(func(s paging.Snapshot) {
		switch s.Phase {
		case paging.PhaseIdle, paging.PhaseRefreshing:
			return
		}
		select {
		case ch <- s:
		default:
		}
	})
	defer loader.Unsubscribe(id)

	select {
	case s := <-ch:
		return s, nil
	case <-ctx.Done():
		return paging.Snapshot{}, ctx.Err()
	}
}

func writeJSON(w io.Writer, items []news.Article) error {
	if items == nil {
		items = []news.Article{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func writeText(w io.Writer, items []news.Article) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No headlines right now")
		return
	}
	for i, a := range items {
		fmt.Fprintf(w, "%3d. %s\n", i+1, a.DisplayTitle())
		if src := a.SourceName(); src != "" {
			fmt.Fprintf(w, "     %s\n", src)
		}
		if a.URL != "" {
			fmt.Fprintf(w, "     %s\n", a.URL)
		}
	}
}
