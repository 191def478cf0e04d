package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillmaker-ai/skillmaker/pkg/compiler"
	"github.com/skillmaker-ai/skillmaker/pkg/logger"
	"github.com/skillmaker-ai/skillmaker/pkg/presenter"
	"github.com/skillmaker-ai/skillmaker/pkg/registry"
)

var compileCmd = &cobra.Command{
	Use:   "compile [skill-name]",
	Short: "Compile tool signatures into tools_schema.json",
	Long: `Compile a skill package: statically extract the signatures of the Python
functions under tools/ and write a deterministic tools_schema.json in the
standard tool-use shape. With --all, compile every package in the registry;
one package's failure never blocks the others.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		all, _ := cmd.Flags().GetBool("all")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if !all && len(args) == 0 {
			presenter.Error(errors.New("a skill name or --all is required"), "Nothing to compile")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		reg, err := registry.Open(viper.GetString("registry"))
		if err != nil {
			presenter.Error(err, "Failed to open skill registry")
			logger.G(ctx).WithError(err).Error("Registry open failed")
			os.Exit(1)
		}

		c := compiler.New()

		var results []registry.Result
		if all {
			results, _ = reg.CompileAll(ctx, c)
		} else {
			results = []registry.Result{reg.CompileOne(ctx, c, args[0])}
		}

		failed := 0
		for _, result := range results {
			if result.Success {
				presenter.Success(fmt.Sprintf("%s: wrote %s", result.Package, result.OutputPath))
			} else {
				failed++
				presenter.Error(result.Err, fmt.Sprintf("%s: compilation failed", result.Package))
			}
			for _, warning := range result.Warnings {
				presenter.Warning(fmt.Sprintf("%s: %s", result.Package, warning))
			}
		}

		if all {
			presenter.Separator()
			presenter.Info(fmt.Sprintf("%d succeeded, %d failed", len(results)-failed, failed))
		}
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	compileCmd.Flags().Bool("all", false, "Compile every skill package in the registry")
	compileCmd.Flags().Duration("timeout", 5*time.Minute, "Overall compilation timeout")
}
