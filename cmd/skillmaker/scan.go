package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillmaker-ai/skillmaker/pkg/llm"
	"github.com/skillmaker-ai/skillmaker/pkg/logger"
	"github.com/skillmaker-ai/skillmaker/pkg/presenter"
	"github.com/skillmaker-ai/skillmaker/pkg/registry"
	"github.com/skillmaker-ai/skillmaker/pkg/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan Python code for extractable business logic",
	Long: `Scan a Python file, directory or glob pattern (e.g. src/**/*.py) for
functions that look like business evaluation logic: threshold comparisons,
branching and numeric constants. With --apply and --skill, extract the
highest-scoring function into the named skill package.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		path := args[0]
		minScore, _ := cmd.Flags().GetInt("min-score")
		apply, _ := cmd.Flags().GetBool("apply")
		skillName, _ := cmd.Flags().GetString("skill")

		s := scanner.New(scanner.WithMinScore(minScore))
		suggestions, warnings, err := s.Scan(path)
		if err != nil {
			presenter.Error(err, "Scan failed")
			logger.G(ctx).WithError(err).WithField("path", path).Error("Scan failed")
			os.Exit(1)
		}
		for _, w := range warnings {
			presenter.Warning(w)
		}

		if len(suggestions) == 0 {
			presenter.Info("No extractable functions found")
			return
		}

		presenter.Section(fmt.Sprintf("Found %d candidate function(s)", len(suggestions)))
		for _, sg := range suggestions {
			presenter.Info(fmt.Sprintf("  %s  %s:%d-%d  score %d (%s)",
				sg.Name, sg.File, sg.StartLine, sg.EndLine, sg.Score, sg.Reason))
		}

		if !apply {
			return
		}
		if skillName == "" {
			presenter.Error(errors.New("--apply requires --skill"), "No target skill package")
			os.Exit(1)
		}

		reg, err := registry.Open(viper.GetString("registry"))
		if err != nil {
			presenter.Error(err, "Failed to open skill registry")
			os.Exit(1)
		}
		pkg, ok := reg.Find(skillName)
		if !ok {
			presenter.Error(errors.Errorf("no skill package named %q under %s", skillName, reg.Root), "Skill package not found")
			os.Exit(1)
		}

		config, err := llm.ConfigFromViper()
		if err != nil {
			presenter.Error(err, "Invalid model configuration")
			os.Exit(1)
		}
		client, err := llm.NewClient(config)
		if err != nil {
			presenter.Error(err, "Failed to initialize model client")
			os.Exit(1)
		}

		best := suggestions[0]
		for _, sg := range suggestions[1:] {
			if sg.Score > best.Score {
				best = sg
			}
		}

		presenter.Separator()
		presenter.Info(fmt.Sprintf("Extracting %s into %s...", best.Name, skillName))

		refactorer := scanner.NewRefactorer(client)
		toolPath, err := refactorer.Apply(ctx, pkg.Dir, best)
		if err != nil {
			presenter.Error(err, "Extraction failed")
			os.Exit(1)
		}

		presenter.Success(fmt.Sprintf("Wrote %s", toolPath))
		presenter.Info(fmt.Sprintf("Run 'skillmaker compile %s' to refresh the tool schema", skillName))
	},
}

func init() {
	scanCmd.Flags().Int("min-score", 6, "Minimum heuristic score for a suggestion")
	scanCmd.Flags().Bool("apply", false, "Extract the highest-scoring function into a skill package")
	scanCmd.Flags().String("skill", "", "Target skill package for --apply")
}
