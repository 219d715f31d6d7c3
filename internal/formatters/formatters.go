package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumelens/internal/schema"
	"resumelens/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ResumeScore", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeScore", &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", "SimplifiedJob", &JobTextFormatter{})
	registry.RegisterFormatter("markdown", "SimplifiedJob", &JobMarkdownFormatter{})
	registry.RegisterFormatter("text", "SimplifiedResume", &ResumeTextFormatter{})
	registry.RegisterFormatter("markdown", "SimplifiedResume", &ResumeMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ResumeScore, *types.ResumeScore:
		return "ResumeScore"
	case types.SimplifiedJob, *types.SimplifiedJob:
		return "SimplifiedJob"
	case types.SimplifiedResume, *types.SimplifiedResume:
		return "SimplifiedResume"
	default:
		return "any"
	}
}

func asScore(data any) (*types.ResumeScore, error) {
	switch v := data.(type) {
	case types.ResumeScore:
		return &v, nil
	case *types.ResumeScore:
		return v, nil
	default:
		return nil, fmt.Errorf("expected ResumeScore, got %T", data)
	}
}

func asJob(data any) (*types.SimplifiedJob, error) {
	switch v := data.(type) {
	case types.SimplifiedJob:
		return &v, nil
	case *types.SimplifiedJob:
		return v, nil
	default:
		return nil, fmt.Errorf("expected SimplifiedJob, got %T", data)
	}
}

func asResume(data any) (*types.SimplifiedResume, error) {
	switch v := data.(type) {
	case types.SimplifiedResume:
		return &v, nil
	case *types.SimplifiedResume:
		return v, nil
	default:
		return nil, fmt.Errorf("expected SimplifiedResume, got %T", data)
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ScoreTextFormatter handles text formatting for scoring results
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	result, err := asScore(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== RESUME SCORE ===\n\n")
	writeMetricText(&output, "Overall", result.OverallScore)
	writeMetricText(&output, "Completeness", result.Completeness)
	writeMetricText(&output, "Impact", result.ImpactScore)
	writeMetricText(&output, "Role Match", result.RoleMatch)

	if len(result.Miscellaneous) > 0 {
		output.WriteString("=== ADDITIONAL METRICS ===\n")
		for name, m := range result.Miscellaneous {
			output.WriteString(fmt.Sprintf("%s: %.0f/100\n", name, schema.ClampScore(m.Score)))
			if m.Reason != "" {
				output.WriteString("  " + m.Reason + "\n")
			}
		}
		output.WriteString("\n")
	}

	if result.JobAlignment != nil {
		ja := result.JobAlignment
		output.WriteString("=== JOB ALIGNMENT ===\n")
		output.WriteString(fmt.Sprintf("Keyword Match: %.0f/100\n", schema.ClampScore(ja.KeywordMatch.Score)))
		if len(ja.KeywordMatch.MatchedKeywords) > 0 {
			output.WriteString("  Matched: " + strings.Join(ja.KeywordMatch.MatchedKeywords, ", ") + "\n")
		}
		if len(ja.KeywordMatch.MissingKeywords) > 0 {
			output.WriteString("  Missing: " + strings.Join(ja.KeywordMatch.MissingKeywords, ", ") + "\n")
		}
		output.WriteString(fmt.Sprintf("Skills Match: %.0f/100\n", schema.ClampScore(ja.SkillsMatch.Score)))
		output.WriteString(fmt.Sprintf("Experience Relevance: %.0f/100\n", schema.ClampScore(ja.ExperienceRelevance.Score)))
		if len(ja.ExperienceRelevance.Gaps) > 0 {
			output.WriteString("  Gaps: " + strings.Join(ja.ExperienceRelevance.Gaps, ", ") + "\n")
		}
		output.WriteString("\n")
	}

	if len(result.OverallImprovements) > 0 {
		output.WriteString("=== IMPROVEMENTS ===\n")
		for i, improvement := range result.OverallImprovements {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, improvement))
		}
		output.WriteString("\n")
	}

	if len(result.JobSpecificImprovements) > 0 {
		output.WriteString("=== JOB-SPECIFIC IMPROVEMENTS ===\n")
		for i, improvement := range result.JobSpecificImprovements {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, improvement))
		}
	}

	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ResumeScore"
}

func writeMetricText(output *strings.Builder, label string, m types.ScoreMetric) {
	output.WriteString(fmt.Sprintf("%s: %.0f/100\n", label, schema.ClampScore(m.Score)))
	if m.Reason != "" {
		output.WriteString("  " + m.Reason + "\n")
	}
	output.WriteString("\n")
}

// ScoreMarkdownFormatter handles markdown formatting for scoring results
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	result, err := asScore(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Resume Score\n\n")
	writeMetricMarkdown(&output, "Overall", result.OverallScore)
	writeMetricMarkdown(&output, "Completeness", result.Completeness)
	writeMetricMarkdown(&output, "Impact", result.ImpactScore)
	writeMetricMarkdown(&output, "Role Match", result.RoleMatch)

	if len(result.Miscellaneous) > 0 {
		output.WriteString("## Additional Metrics\n\n")
		for name, m := range result.Miscellaneous {
			output.WriteString(fmt.Sprintf("- **%s:** %.0f/100", name, schema.ClampScore(m.Score)))
			if m.Reason != "" {
				output.WriteString(" (" + m.Reason + ")")
			}
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	if result.JobAlignment != nil {
		ja := result.JobAlignment
		output.WriteString("## Job Alignment\n\n")
		output.WriteString(fmt.Sprintf("**Keyword Match:** %.0f/100\n\n", schema.ClampScore(ja.KeywordMatch.Score)))
		if len(ja.KeywordMatch.MatchedKeywords) > 0 {
			output.WriteString("Matched: " + strings.Join(ja.KeywordMatch.MatchedKeywords, ", ") + "\n\n")
		}
		if len(ja.KeywordMatch.MissingKeywords) > 0 {
			output.WriteString("Missing: " + strings.Join(ja.KeywordMatch.MissingKeywords, ", ") + "\n\n")
		}
		output.WriteString(fmt.Sprintf("**Skills Match:** %.0f/100\n\n", schema.ClampScore(ja.SkillsMatch.Score)))
		output.WriteString(fmt.Sprintf("**Experience Relevance:** %.0f/100\n\n", schema.ClampScore(ja.ExperienceRelevance.Score)))
	}

	if len(result.OverallImprovements) > 0 {
		output.WriteString("## Improvements\n\n")
		for i, improvement := range result.OverallImprovements {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, improvement))
		}
		output.WriteString("\n")
	}

	if len(result.JobSpecificImprovements) > 0 {
		output.WriteString("## Job-Specific Improvements\n\n")
		for i, improvement := range result.JobSpecificImprovements {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, improvement))
		}
	}

	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ResumeScore"
}

func writeMetricMarkdown(output *strings.Builder, label string, m types.ScoreMetric) {
	output.WriteString(fmt.Sprintf("**%s:** %.0f/100", label, schema.ClampScore(m.Score)))
	if m.Reason != "" {
		output.WriteString(" (" + m.Reason + ")")
	}
	output.WriteString("\n\n")
}

// JobTextFormatter handles text formatting for formatted job listings
type JobTextFormatter struct{}

func (jtf *JobTextFormatter) Format(data any) (string, error) {
	result, err := asJob(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== JOB LISTING ===\n\n")
	output.WriteString("Company: " + result.Company + "\n")
	output.WriteString("Position: " + result.PositionTitle + "\n")
	if result.Location != "" {
		output.WriteString("Location: " + result.Location + "\n")
	}
	if result.SalaryRange != "" {
		output.WriteString("Salary: " + result.SalaryRange + "\n")
	}
	if result.WorkLocation != "" {
		output.WriteString("Work Location: " + string(result.WorkLocation) + "\n")
	}
	if result.EmploymentType != "" {
		output.WriteString("Employment: " + string(result.EmploymentType) + "\n")
	}
	if result.JobURL != "" {
		output.WriteString("URL: " + result.JobURL + "\n")
	}

	if result.Description != "" {
		output.WriteString("\n=== DESCRIPTION ===\n")
		output.WriteString(result.Description)
		output.WriteString("\n")
	}

	if len(result.Keywords) > 0 {
		output.WriteString("\n=== KEYWORDS ===\n")
		output.WriteString(strings.Join(result.Keywords, ", "))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (jtf *JobTextFormatter) SupportedType() string {
	return "SimplifiedJob"
}

// JobMarkdownFormatter handles markdown formatting for formatted job listings
type JobMarkdownFormatter struct{}

func (jmf *JobMarkdownFormatter) Format(data any) (string, error) {
	result, err := asJob(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# %s at %s\n\n", result.PositionTitle, result.Company))
	if result.Location != "" {
		output.WriteString("**Location:** " + result.Location + "\n\n")
	}
	if result.SalaryRange != "" {
		output.WriteString("**Salary:** " + result.SalaryRange + "\n\n")
	}
	if result.WorkLocation != "" {
		output.WriteString("**Work Location:** " + string(result.WorkLocation) + "\n\n")
	}
	if result.EmploymentType != "" {
		output.WriteString("**Employment:** " + string(result.EmploymentType) + "\n\n")
	}
	if result.JobURL != "" {
		output.WriteString("**URL:** " + result.JobURL + "\n\n")
	}

	if result.Description != "" {
		output.WriteString("## Description\n\n")
		output.WriteString(result.Description)
		output.WriteString("\n\n")
	}

	if len(result.Keywords) > 0 {
		output.WriteString("## Keywords\n\n")
		for _, keyword := range result.Keywords {
			output.WriteString("- " + keyword + "\n")
		}
	}

	return output.String(), nil
}

func (jmf *JobMarkdownFormatter) SupportedType() string {
	return "SimplifiedJob"
}

// ResumeTextFormatter handles text formatting for tailored resumes
type ResumeTextFormatter struct{}

func (rtf *ResumeTextFormatter) Format(data any) (string, error) {
	result, err := asResume(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== TAILORED RESUME ===\n\n")
	if result.TargetRole != "" {
		output.WriteString("Target Role: " + result.TargetRole + "\n\n")
	}

	if len(result.WorkExperience) > 0 {
		output.WriteString("=== EXPERIENCE ===\n\n")
		for _, exp := range result.WorkExperience {
			output.WriteString(fmt.Sprintf("%s, %s", exp.Position, exp.Company))
			if exp.Dates != "" {
				output.WriteString(" (" + exp.Dates + ")")
			}
			output.WriteString("\n")
			for _, bullet := range exp.Bullets {
				output.WriteString("  - " + bullet + "\n")
			}
			output.WriteString("\n")
		}
	}

	if len(result.Education) > 0 {
		output.WriteString("=== EDUCATION ===\n\n")
		for _, edu := range result.Education {
			output.WriteString(edu.School)
			if edu.Degree != "" {
				output.WriteString(", " + edu.Degree)
			}
			if edu.Field != "" {
				output.WriteString(" in " + edu.Field)
			}
			if edu.Dates != "" {
				output.WriteString(" (" + edu.Dates + ")")
			}
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	if len(result.Skills) > 0 {
		output.WriteString("=== SKILLS ===\n\n")
		for _, group := range result.Skills {
			output.WriteString(group.Category + ": " + strings.Join(group.Items, ", ") + "\n")
		}
		output.WriteString("\n")
	}

	if len(result.Projects) > 0 {
		output.WriteString("=== PROJECTS ===\n\n")
		for _, project := range result.Projects {
			output.WriteString(project.Name)
			if project.Dates != "" {
				output.WriteString(" (" + project.Dates + ")")
			}
			output.WriteString("\n")
			if project.Description != "" {
				output.WriteString("  " + project.Description + "\n")
			}
			if len(project.Technologies) > 0 {
				output.WriteString("  Technologies: " + strings.Join(project.Technologies, ", ") + "\n")
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (rtf *ResumeTextFormatter) SupportedType() string {
	return "SimplifiedResume"
}

// ResumeMarkdownFormatter handles markdown formatting for tailored resumes
type ResumeMarkdownFormatter struct{}

func (rmf *ResumeMarkdownFormatter) Format(data any) (string, error) {
	result, err := asResume(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Tailored Resume\n\n")
	if result.TargetRole != "" {
		output.WriteString("**Target Role:** " + result.TargetRole + "\n\n")
	}

	if len(result.WorkExperience) > 0 {
		output.WriteString("## Experience\n\n")
		for _, exp := range result.WorkExperience {
			output.WriteString(fmt.Sprintf("### %s, %s", exp.Position, exp.Company))
			if exp.Dates != "" {
				output.WriteString(" (" + exp.Dates + ")")
			}
			output.WriteString("\n\n")
			for _, bullet := range exp.Bullets {
				output.WriteString("- " + bullet + "\n")
			}
			output.WriteString("\n")
		}
	}

	if len(result.Education) > 0 {
		output.WriteString("## Education\n\n")
		for _, edu := range result.Education {
			output.WriteString("- **" + edu.School + "**")
			if edu.Degree != "" {
				output.WriteString(", " + edu.Degree)
			}
			if edu.Field != "" {
				output.WriteString(" in " + edu.Field)
			}
			if edu.Dates != "" {
				output.WriteString(" (" + edu.Dates + ")")
			}
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	if len(result.Skills) > 0 {
		output.WriteString("## Skills\n\n")
		for _, group := range result.Skills {
			output.WriteString("- **" + group.Category + ":** " + strings.Join(group.Items, ", ") + "\n")
		}
		output.WriteString("\n")
	}

	if len(result.Projects) > 0 {
		output.WriteString("## Projects\n\n")
		for _, project := range result.Projects {
			output.WriteString("### " + project.Name)
			if project.Dates != "" {
				output.WriteString(" (" + project.Dates + ")")
			}
			output.WriteString("\n\n")
			if project.Description != "" {
				output.WriteString(project.Description + "\n\n")
			}
			if len(project.Technologies) > 0 {
				output.WriteString("Technologies: " + strings.Join(project.Technologies, ", ") + "\n\n")
			}
		}
	}

	return output.String(), nil
}

func (rmf *ResumeMarkdownFormatter) SupportedType() string {
	return "SimplifiedResume"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
