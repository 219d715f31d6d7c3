package cli

import (
	"context"
	"fmt"

	"resumelens/internal/ai"
	"resumelens/internal/common"
	"resumelens/internal/types"

	"github.com/spf13/cobra"
)

var formatJobCmd = &cobra.Command{
	Use:   "format-job [job-listing-file]",
	Short: "Extract a structured job record from a free-form listing",
	Long: `Extract a structured job record from a free-form job listing using AI.
The command takes one argument: the path to a file containing the listing as
copied from a job board or careers page. The output is a normalized job record
with company, position, location and compensation fields.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if formatJobConfig.OutputFormat == "" {
			formatJobConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(formatJobConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runFormatJob,
}

var formatJobConfig common.CommandConfig

func init() {
	formatJobCmd.Flags().StringVarP(&formatJobConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	formatJobCmd.Flags().StringVar(&formatJobConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
}

func runFormatJob(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	gate := ai.GateFromConfig(&cfg.AI)
	formatAIConfig := cfg.GetFormatJobConfig()
	formatAIConfig.Model = gate.StandardModel

	aiService, err := ai.NewService(&formatAIConfig, "format-job", nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	createInput := func(contents []string) (types.FormatJobInput, error) {
		if len(contents) != 1 {
			return types.FormatJobInput{}, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return types.FormatJobInput{Text: contents[0]}, nil
	}

	logDetails := func(input types.FormatJobInput, cfg common.CommandConfig) {
		logger.Info("Starting job listing extraction",
			"listing_chars", len(input.Text),
			"output_format", cfg.OutputFormat)
	}

	// Create a wrapper function that uses our specific AI service
	formatOperation := func(ctx context.Context, input types.FormatJobInput) (types.SimplifiedJob, *ai.TokenUsage, error) {
		return aiService.Provider.FormatJobListing(ctx, input)
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		formatJobConfig,
		args,
		createInput,
		formatOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to format job listing: %w", err)
	}
	logger.Info("Job listing extraction completed successfully")
	return nil
}
