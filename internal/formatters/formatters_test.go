package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"resumelens/internal/types"
)

func sampleScore() types.ResumeScore {
	return types.ResumeScore{
		OverallScore: types.ScoreMetric{Score: 82, Reason: "strong technical depth"},
		Completeness: types.ScoreMetric{Score: 90},
		ImpactScore:  types.ScoreMetric{Score: 70},
		RoleMatch:    types.ScoreMetric{Score: 85},
		JobAlignment: &types.JobAlignment{
			KeywordMatch: types.KeywordMatch{
				Score:           60,
				MatchedKeywords: []string{"go", "postgres"},
				MissingKeywords: []string{"kubernetes"},
			},
			SkillsMatch:         types.SkillsMatch{Score: 75},
			ExperienceRelevance: types.ExperienceRelevance{Score: 80, Gaps: []string{"no team lead experience"}},
		},
		Miscellaneous: map[string]types.MiscMetric{
			"readability": {Score: 88, Reason: "clear structure"},
		},
		OverallImprovements:     []string{"quantify achievements"},
		JobSpecificImprovements: []string{"mention container orchestration"},
		IsTailoredResume:        true,
	}
}

func sampleJob() types.SimplifiedJob {
	return types.SimplifiedJob{
		Company:        "Acme",
		PositionTitle:  "Backend Engineer",
		Location:       "Toronto, ON",
		SalaryRange:    "$120k-$150k",
		WorkLocation:   types.WorkLocationHybrid,
		EmploymentType: types.EmploymentFullTime,
		Description:    "• Build APIs\n\nA backend role.",
		Keywords:       []string{"go", "grpc"},
	}
}

func sampleResume() types.SimplifiedResume {
	return types.SimplifiedResume{
		TargetRole: "Backend Engineer",
		WorkExperience: []types.WorkExperience{
			{Company: "Initech", Position: "Developer", Dates: "2021-2024", Bullets: []string{"Shipped the billing service"}},
		},
		Education: []types.Education{{School: "State University", Degree: "BSc", Field: "Computer Science"}},
		Skills:    []types.SkillGroup{{Category: "Languages", Items: []string{"Go", "SQL"}}},
		Projects:  []types.Project{{Name: "resumelens", Description: "Resume tooling", Technologies: []string{"Go"}}},
	}
}

func TestJSONFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleScore(), "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var decoded types.ResumeScore
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.OverallScore.Score != 82 {
		t.Errorf("round trip lost data: %v", decoded.OverallScore.Score)
	}
}

func TestScoreTextFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleScore(), "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	for _, want := range []string{
		"=== RESUME SCORE ===",
		"Overall: 82/100",
		"=== JOB ALIGNMENT ===",
		"Keyword Match: 60/100",
		"Missing: kubernetes",
		"=== JOB-SPECIFIC IMPROVEMENTS ===",
		"readability: 88/100",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestScoreMarkdownFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleScore(), "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	for _, want := range []string{
		"# Resume Score",
		"**Overall:** 82/100",
		"## Job Alignment",
		"## Job-Specific Improvements",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestScoreFormatterOmitsAlignmentForBaseResume(t *testing.T) {
	registry := NewFormatterRegistry()

	score := sampleScore()
	score.JobAlignment = nil
	score.JobSpecificImprovements = nil
	score.IsTailoredResume = false

	output, err := registry.Format(score, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if strings.Contains(output, "JOB ALIGNMENT") {
		t.Error("base resume output must not contain a job alignment section")
	}
}

func TestScoreFormatterClampsDisplayedScores(t *testing.T) {
	registry := NewFormatterRegistry()

	score := sampleScore()
	score.OverallScore.Score = 104.2

	output, err := registry.Format(score, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(output, "Overall: 100/100") {
		t.Errorf("displayed score should be clamped to 100, got:\n%s", output)
	}
}

func TestJobFormatters(t *testing.T) {
	registry := NewFormatterRegistry()

	text, err := registry.Format(sampleJob(), "text")
	if err != nil {
		t.Fatalf("text format failed: %v", err)
	}
	for _, want := range []string{"Company: Acme", "Position: Backend Engineer", "go, grpc"} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q", want)
		}
	}

	job := sampleJob()
	md, err := registry.Format(&job, "markdown")
	if err != nil {
		t.Fatalf("markdown format failed: %v", err)
	}
	for _, want := range []string{"# Backend Engineer at Acme", "**Location:** Toronto, ON", "- grpc"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestResumeFormatters(t *testing.T) {
	registry := NewFormatterRegistry()

	text, err := registry.Format(sampleResume(), "text")
	if err != nil {
		t.Fatalf("text format failed: %v", err)
	}
	for _, want := range []string{"Developer, Initech (2021-2024)", "Shipped the billing service", "Languages: Go, SQL"} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q", want)
		}
	}

	md, err := registry.Format(sampleResume(), "markdown")
	if err != nil {
		t.Fatalf("markdown format failed: %v", err)
	}
	for _, want := range []string{"## Experience", "### Developer, Initech", "**Languages:** Go, SQL"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestUnknownFormat(t *testing.T) {
	registry := NewFormatterRegistry()

	if _, err := registry.Format(sampleScore(), "yaml"); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestSupportedFormats(t *testing.T) {
	registry := NewFormatterRegistry()

	formats := registry.GetSupportedFormats()
	want := map[string]bool{"json": false, "text": false, "markdown": false}
	for _, f := range formats {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Errorf("format %q not registered", f)
		}
	}
}
