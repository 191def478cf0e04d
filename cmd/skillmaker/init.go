package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillmaker-ai/skillmaker/pkg/logger"
	"github.com/skillmaker-ai/skillmaker/pkg/presenter"
	"github.com/skillmaker-ai/skillmaker/pkg/scaffold"
)

var initCmd = &cobra.Command{
	Use:   "init [skill-name]",
	Short: "Scaffold a new skill package",
	Long: `Scaffold a new skill package with a manifest, a SKILL.md template,
a tools directory with an example tool and a knowledge directory.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		name := args[0]
		author, _ := cmd.Flags().GetString("author")
		industry, _ := cmd.Flags().GetString("industry")
		root := viper.GetString("registry")

		dir, err := scaffold.Create(root, name, scaffold.Options{
			Author:   author,
			Industry: industry,
		})
		if err != nil {
			presenter.Error(err, "Failed to create skill package")
			logger.G(ctx).WithError(err).WithField("skill", name).Error("Scaffold failed")
			os.Exit(1)
		}

		presenter.Success(fmt.Sprintf("Created skill package at %s", dir))
		presenter.Info(fmt.Sprintf("  %s", filepath.Join(dir, "SKILL.md")))
		presenter.Info(fmt.Sprintf("  %s", filepath.Join(dir, "manifest.json")))
		presenter.Info(fmt.Sprintf("  %s", filepath.Join(dir, "tools", "example_tool.py")))
		presenter.Info(fmt.Sprintf("  %s", filepath.Join(dir, "knowledge", "README.md")))
		presenter.Separator()
		presenter.Info("Next steps:")
		presenter.Info(fmt.Sprintf("  skillmaker interview %s   # Capture expert knowledge into SKILL.md", name))
		presenter.Info(fmt.Sprintf("  skillmaker compile %s     # Compile tool signatures into tools_schema.json", name))
	},
}

func init() {
	initCmd.Flags().String("author", "", "Author recorded in the manifest")
	initCmd.Flags().String("industry", "", "Industry recorded in the manifest (e.g. finance, insurance)")
}
