package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/quranlake/internal/cache"
	"github.com/smokyabdulrahman/quranlake/internal/display"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the prayer times cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show what is cached",
		Args:  cobra.NoArgs,
		RunE:  runCacheStatus,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the cached prayer times",
		Args:  cobra.NoArgs,
		RunE:  runCacheClear,
	})

	return cmd
}

type cacheJSON struct {
	cache.Status
	Location string `json:"location,omitempty"`
	Date     string `json:"date,omitempty"`
	Bytes    int    `json:"bytes"`
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg, "warn")
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cacheJSON{Status: a.store.Status(ctx), Bytes: a.store.Size(ctx)}
	if data := a.store.Get(ctx); data != nil {
		out.Location = data.Location.Label()
		out.Date = data.Date
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, out)
	}

	if !out.HasCache {
		fmt.Fprintln(w, "No cached prayer times.")
		return nil
	}
	fmt.Fprintf(w, "  %-14s %s\n", "location", out.Location)
	fmt.Fprintf(w, "  %-14s %s\n", "date", out.Date)
	fmt.Fprintf(w, "  %-14s %s\n", "last updated", out.LastUpdated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  %-14s %s\n", "for today", yesNo(out.IsForToday))
	fmt.Fprintf(w, "  %-14s %s\n", "expired", yesNo(out.IsExpired))
	fmt.Fprintf(w, "  %-14s %d bytes\n", "size", out.Bytes)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg, "warn")
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	a.ctrl.ClearCache(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
	return nil
}

func yesNo(b bool) string {
	if b {
		return display.Green("yes")
	}
	return display.Dim("no")
}
