package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strrl/folio/internal/auth"
	"github.com/strrl/folio/internal/catalog"
)

// NewDebugCommand creates the debug-cache command
func NewDebugCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "debug-cache [key]",
		Short: "Debug the cache to see raw entries",
		Long: `Print the raw cache entries with their age and TTL.
Without arguments the well-known keys are shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			keys := []string{catalog.KeyWorks, catalog.KeyCategories, auth.KeySession}
			if len(args) == 1 {
				keys = args
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache backend: %s\n", a.cfg.CacheBackend)
			fmt.Fprintln(out, "==========================================")
			now := a.store.Now()
			for _, key := range keys {
				e, ok, err := a.store.Inspect(cmd.Context(), key)
				switch {
				case err != nil:
					fmt.Fprintf(out, "\n--- %s ---\nerror: %v\n", key, err)
				case !ok:
					fmt.Fprintf(out, "\n--- %s ---\n(absent)\n", key)
				default:
					fmt.Fprintf(out, "\n--- %s ---\nstored: %s\nttl: %s\nexpired: %t\n%s\n",
						key,
						e.StoredAt.Local().Format("2006-01-02 15:04:05"),
						e.TTL,
						e.Expired(now),
						e.Data)
				}
			}
			return nil
		},
	}
}
