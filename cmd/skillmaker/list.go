package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillmaker-ai/skillmaker/pkg/presenter"
	"github.com/skillmaker-ai/skillmaker/pkg/registry"
	"github.com/skillmaker-ai/skillmaker/pkg/skill"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List skill packages in the registry",
	Run: func(cmd *cobra.Command, args []string) {
		reg, err := registry.Open(viper.GetString("registry"))
		if err != nil {
			presenter.Error(err, "Failed to open skill registry")
			os.Exit(1)
		}

		if len(reg.Packages) == 0 {
			presenter.Info(fmt.Sprintf("No skill packages found under %s", reg.Root))
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tTOOLS\tCOMPILED\tDESCRIPTION")
		for _, desc := range reg.Packages {
			manifest, err := skill.LoadManifest(desc.Dir)
			if err != nil {
				fmt.Fprintf(w, "%s\t-\t-\t-\t(invalid manifest: %v)\n", desc.Name, err)
				continue
			}
			compiled := "no"
			if _, err := os.Stat(filepath.Join(desc.Dir, skill.SchemaFileName)); err == nil {
				compiled = "yes"
			}
			description := truncateDescription(manifest.Description, 60)
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				desc.Name, manifest.Version, len(manifest.Tools), compiled, strings.TrimSpace(description))
		}
		w.Flush()
	},
}

// truncateDescription shortens s to at most max runes, replacing the tail
// with an ellipsis. Truncation counts runes so multi-byte text stays valid.
func truncateDescription(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
