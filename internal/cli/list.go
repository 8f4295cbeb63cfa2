package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmapper/pkg/storage"
)

func (c *CLI) listCommand() *cobra.Command {
	var date, name string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored mind-map images for a day",
		Example: `  mindmapper list
  mindmapper list --date 2024-03-01 --name roadmap
  mindmapper list -i`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, _, err := c.openCoordinator(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer coord.Close(cmd.Context())

			entries, err := coord.ListArtifacts(date, name)
			if err != nil {
				return err
			}
			day := date
			if day == "" {
				day = time.Now().Format("2006-01-02")
			}
			if len(entries) == 0 {
				printInfo("No images found for %s", day)
				return nil
			}
			if interactive {
				return pickArtifact(entries)
			}
			printArtifacts(day, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "day to list, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "only images whose name contains this text")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick an image interactively")

	return cmd
}

func printArtifacts(day string, entries []storage.Entry) {
	fmt.Fprintln(uiOut, StyleTitle.Render(fmt.Sprintf("Images for %s", day)))

	t := newTable("Name", "Size", "Created", "URL")
	var total int64
	for _, e := range entries {
		t.Row(truncate(e.Name, 40), humanSize(e.SizeBytes), e.CreatedTime.Format("15:04:05"), e.URL)
		total += e.SizeBytes
	}
	fmt.Fprintln(uiOut, t.Render())
	printDetail("%d images, %s", len(entries), humanSize(total))
}

// pickArtifact runs the interactive picker and prints the chosen image.
func pickArtifact(entries []storage.Entry) error {
	final, err := tea.NewProgram(newArtifactListModel(entries)).Run()
	if err != nil {
		return fmt.Errorf("run picker: %w", err)
	}
	m, ok := final.(ArtifactListModel)
	if !ok || m.Selected == nil {
		return nil
	}
	printSuccess("%s", m.Selected.Name)
	printKeyValue("URL", StyleLink.Render(m.Selected.URL))
	printKeyValue("File", m.Selected.Path)
	printKeyValue("Size", humanSize(m.Selected.SizeBytes))
	return nil
}
