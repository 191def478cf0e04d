package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillmaker-ai/skillmaker/pkg/interview"
	"github.com/skillmaker-ai/skillmaker/pkg/llm"
	"github.com/skillmaker-ai/skillmaker/pkg/logger"
	"github.com/skillmaker-ai/skillmaker/pkg/presenter"
	"github.com/skillmaker-ai/skillmaker/pkg/registry"
)

var interviewCmd = &cobra.Command{
	Use:   "interview [skill-name]",
	Short: "Interview a domain expert and generate the skill document",
	Long: `Run a structured interview with a domain expert. The model asks about
decision criteria, thresholds and the evaluation sequence; when the interview
is complete the transcript is distilled into SKILL.md and the manifest is
updated. Type "quit" or "exit" to abort.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		name := args[0]
		maxTurns, _ := cmd.Flags().GetInt("max-turns")

		reg, err := registry.Open(viper.GetString("registry"))
		if err != nil {
			presenter.Error(err, "Failed to open skill registry")
			os.Exit(1)
		}
		pkg, ok := reg.Find(name)
		if !ok {
			presenter.Error(errors.Errorf("no skill package named %q under %s", name, reg.Root), "Skill package not found")
			presenter.Info(fmt.Sprintf("Run 'skillmaker init %s' to create it first", name))
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

		presenter.Section(fmt.Sprintf("Expert Interview: %s", name))
		presenter.Info("Answer in your own words. Type 'quit' or 'exit' to abort.")
		presenter.Separator()

		session := interview.NewSession(client, interview.NewTerminalSource(os.Stdin, os.Stdout),
			interview.WithMaxTurns(maxTurns))
		transcript, err := session.Run(ctx)
		if err != nil {
			if errors.Is(err, interview.ErrAborted) {
				presenter.Warning("Interview aborted; no changes written")
				os.Exit(2)
			}
			presenter.Error(err, "Interview failed")
			logger.G(ctx).WithError(err).Error("Interview session failed")
			os.Exit(1)
		}

		presenter.Separator()
		presenter.Info("Generating skill document from the transcript...")

		generator := interview.NewGenerator(client)
		artifacts, err := generator.Generate(ctx, transcript, pkg.Dir)
		if err != nil {
			presenter.Error(err, "Failed to generate skill document")
			os.Exit(1)
		}

		presenter.Success(fmt.Sprintf("Wrote %s", artifacts.DocumentPath))
		if artifacts.Description != "" {
			presenter.Success("Updated manifest description and tags")
		}
	},
}

func init() {
	interviewCmd.Flags().Int("max-turns", 25, "Maximum number of interview turns")
}
