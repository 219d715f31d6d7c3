package cli

import (
	"context"
	"fmt"

	"resumelens/internal/ai"
	"resumelens/internal/common"
	"resumelens/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file] [job-description-file]",
	Short: "Score a resume, optionally against a job description",
	Long: `Score a resume across hard skills, soft skills, formatting and keyword
usage. With a job description file the resume is additionally scored on how
well it aligns with the job. Both files should be in plain text format.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if scoreConfig.OutputFormat == "" {
			scoreConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(scoreConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScore,
}

var scoreConfig common.CommandConfig
var scorePremium bool

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	scoreCmd.Flags().BoolVar(&scorePremium, "premium", false, "Use the premium model tier")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	gate := ai.GateFromConfig(&cfg.AI)
	scoreAIConfig := cfg.GetScoreConfig()
	scoreAIConfig.Model = gate.StandardModel
	if scorePremium {
		scoreAIConfig.Model = gate.PremiumModel
	}

	aiService, err := ai.NewService(&scoreAIConfig, "score", nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	createInput := func(contents []string) (types.ScoreRequest, error) {
		if len(contents) == 0 {
			return types.ScoreRequest{}, fmt.Errorf("expected at least 1 file path")
		}
		req := types.ScoreRequest{
			Resume: types.ScoreResumeInput{
				RawText:      contents[0],
				IsBaseResume: len(contents) < 2,
			},
		}
		if len(contents) == 2 {
			req.Job = &types.ScoreJobInput{Description: contents[1]}
		}
		return req, nil
	}

	logDetails := func(input types.ScoreRequest, cfg common.CommandConfig) {
		logger.Info("Starting resume scoring",
			"resume_chars", len(input.Resume.RawText),
			"has_job", input.Job != nil,
			"model", scoreAIConfig.Model,
			"output_format", cfg.OutputFormat)
	}

	// Create a wrapper function that uses our specific AI service
	scoreOperation := func(ctx context.Context, input types.ScoreRequest) (types.ResumeScore, *ai.TokenUsage, error) {
		return aiService.Provider.ScoreResume(ctx, input)
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		scoreConfig,
		args,
		createInput,
		scoreOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}
	logger.Info("Resume scoring completed successfully")
	return nil
}
