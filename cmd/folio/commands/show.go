package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/strrl/folio/internal/gallery"
	"github.com/strrl/folio/pkg/models"
)

// NewShowCommand creates the show command
func NewShowCommand() *cobra.Command {
	var category int
	cmd := &cobra.Command{
		Use:   "show [works|categories]",
		Short: "Show works or categories without TUI",
		Long: `Show works or categories in a non-interactive format.
Without arguments: lists all works
With "categories": lists the categories
--category filters works by category id`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"works", "categories"},
		RunE: func(cmd *cobra.Command, args []string) error {
			what := "works"
			if len(args) == 1 {
				what = args[0]
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			switch what {
			case "works":
				works, err := a.catalog.Works(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to fetch works: %w", err)
				}
				showWorks(out, gallery.Filter(works, category))
				return nil
			case "categories":
				categories, err := a.catalog.Categories(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to fetch categories: %w", err)
				}
				showCategories(out, categories)
				return nil
			default:
				return fmt.Errorf("unknown collection %q. Usage: folio show [works|categories]", what)
			}
		},
	}
	cmd.Flags().IntVar(&category, "category", gallery.AllCategories, "only works of this category id (0 = all)")
	return cmd
}

func showWorks(out io.Writer, works []models.Work) {
	if len(works) == 0 {
		fmt.Fprintln(out, "No works found")
		return
	}

	fmt.Fprintln(out, "Works:")
	fmt.Fprintln(out, "======")
	for i, w := range works {
		fmt.Fprintf(out, "%d. %s\n", i+1, w.Title)
		fmt.Fprintf(out, "   ID: %d\n", w.ID)
		if w.Category.Name != "" {
			fmt.Fprintf(out, "   Category: %s (%d)\n", w.Category.Name, w.CategoryKey())
		} else {
			fmt.Fprintf(out, "   Category: %d\n", w.CategoryKey())
		}
		fmt.Fprintf(out, "   Image: %s\n", w.ImageURL)
		fmt.Fprintln(out)
	}
}

func showCategories(out io.Writer, categories []models.Category) {
	if len(categories) == 0 {
		fmt.Fprintln(out, "No categories found")
		return
	}

	fmt.Fprintln(out, "Categories:")
	fmt.Fprintln(out, "===========")
	for _, c := range categories {
		fmt.Fprintf(out, "%d. %s\n", c.ID, c.Name)
	}
}
