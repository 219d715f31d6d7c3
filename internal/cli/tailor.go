package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"resumelens/internal/ai"
	"resumelens/internal/common"
	"resumelens/internal/schema"
	"resumelens/internal/types"

	"github.com/spf13/cobra"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor [resume-json-file] [job-json-file]",
	Short: "Tailor a structured resume for a specific job",
	Long: `Tailor a structured resume for a specific job using AI. The command
takes two arguments: the path to a resume JSON file and the path to a job
record JSON file, both in the structured format produced by this tool. Work
history and skills are rewritten to emphasize what the job asks for without
inventing experience.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if tailorConfig.OutputFormat == "" {
			tailorConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(tailorConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runTailor,
}

var tailorConfig common.CommandConfig
var tailorPremium bool

func init() {
	tailorCmd.Flags().StringVarP(&tailorConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	tailorCmd.Flags().StringVar(&tailorConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	tailorCmd.Flags().BoolVar(&tailorPremium, "premium", false, "Use the premium model tier")
}

func runTailor(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	gate := ai.GateFromConfig(&cfg.AI)
	tailorAIConfig := cfg.GetTailorConfig()
	tailorAIConfig.Model = gate.StandardModel
	if tailorPremium {
		tailorAIConfig.Model = gate.PremiumModel
	}

	aiService, err := ai.NewService(&tailorAIConfig, "tailor", nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	createInput := func(contents []string) (types.TailorResumeInput, error) {
		if len(contents) != 2 {
			return types.TailorResumeInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}

		var input types.TailorResumeInput
		if err := json.Unmarshal([]byte(contents[0]), &input.Resume); err != nil {
			return types.TailorResumeInput{}, fmt.Errorf("failed to parse resume JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(contents[1]), &input.Job); err != nil {
			return types.TailorResumeInput{}, fmt.Errorf("failed to parse job JSON: %w", err)
		}

		if err := schema.ValidateSimplifiedResume(&input.Resume); err != nil {
			return types.TailorResumeInput{}, err
		}
		if err := schema.ValidateSimplifiedJob(&input.Job); err != nil {
			return types.TailorResumeInput{}, err
		}
		return input, nil
	}

	logDetails := func(input types.TailorResumeInput, cfg common.CommandConfig) {
		logger.Info("Starting resume tailoring",
			"experience_entries", len(input.Resume.WorkExperience),
			"company", input.Job.Company,
			"position", input.Job.PositionTitle,
			"model", tailorAIConfig.Model,
			"output_format", cfg.OutputFormat)
	}

	// Create a wrapper function that uses our specific AI service
	tailorOperation := func(ctx context.Context, input types.TailorResumeInput) (types.SimplifiedResume, *ai.TokenUsage, error) {
		return aiService.Provider.TailorResume(ctx, input)
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		tailorConfig,
		args,
		createInput,
		tailorOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to tailor resume: %w", err)
	}
	logger.Info("Resume tailoring completed successfully")
	return nil
}
