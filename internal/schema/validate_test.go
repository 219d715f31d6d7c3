package schema

import (
	"strings"
	"testing"

	apperrors "resumelens/internal/errors"
	"resumelens/internal/types"
)

func baseScore() *types.ResumeScore {
	return &types.ResumeScore{
		OverallScore: types.ScoreMetric{Score: 72, Reason: "solid fundamentals"},
		Completeness: types.ScoreMetric{Score: 80, Reason: "all sections present"},
		ImpactScore:  types.ScoreMetric{Score: 65, Reason: "some quantified results"},
		RoleMatch:    types.ScoreMetric{Score: 70, Reason: "adjacent role"},
		OverallImprovements: []string{"quantify outcomes"},
	}
}

func tailoredScore() *types.ResumeScore {
	s := baseScore()
	s.IsTailoredResume = true
	s.JobAlignment = &types.JobAlignment{
		KeywordMatch: types.KeywordMatch{
			Score:           60,
			MatchedKeywords: []string{"go"},
			MissingKeywords: []string{"kubernetes"},
			Reason:          "half the keywords",
		},
		SkillsMatch:         types.SkillsMatch{Score: 55, Reason: "partial overlap"},
		ExperienceRelevance: types.ExperienceRelevance{Score: 58, Reason: "related industry"},
	}
	s.JobSpecificImprovements = []string{"mention kubernetes"}
	return s
}

func TestValidateResumeScore(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.ResumeScore)
		score   *types.ResumeScore
		wantErr string
	}{
		{name: "valid base", score: baseScore()},
		{name: "valid tailored", score: tailoredScore()},
		{
			name:  "score above 100",
			score: baseScore(),
			mutate: func(s *types.ResumeScore) {
				s.OverallScore.Score = 101
			},
			wantErr: "overallScore",
		},
		{
			name:  "score below 0",
			score: baseScore(),
			mutate: func(s *types.ResumeScore) {
				s.ImpactScore.Score = -1
			},
			wantErr: "impactScore",
		},
		{
			name:  "nested alignment score out of range",
			score: tailoredScore(),
			mutate: func(s *types.ResumeScore) {
				s.JobAlignment.SkillsMatch.Score = 140
			},
			wantErr: "skillsMatch",
		},
		{
			name:  "miscellaneous score out of range",
			score: baseScore(),
			mutate: func(s *types.ResumeScore) {
				s.Miscellaneous = map[string]types.MiscMetric{
					"readability": {Score: 250},
				}
			},
			wantErr: "miscellaneous.readability",
		},
		{
			name:  "alignment without job improvements",
			score: tailoredScore(),
			mutate: func(s *types.ResumeScore) {
				s.JobSpecificImprovements = nil
			},
			wantErr: "present together",
		},
		{
			name:  "job improvements without alignment",
			score: tailoredScore(),
			mutate: func(s *types.ResumeScore) {
				s.JobAlignment = nil
			},
			wantErr: "present together",
		},
		{
			name:  "tailored flag without alignment",
			score: baseScore(),
			mutate: func(s *types.ResumeScore) {
				s.IsTailoredResume = true
			},
			wantErr: "isTailoredResume",
		},
		{
			name:  "alignment on base resume",
			score: tailoredScore(),
			mutate: func(s *types.ResumeScore) {
				s.IsTailoredResume = false
			},
			wantErr: "isTailoredResume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate != nil {
				tt.mutate(tt.score)
			}
			err := ValidateResumeScore(tt.score)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if apperrors.TypeOf(err) != apperrors.ErrorTypeValidation {
				t.Errorf("expected validation error type, got %v", apperrors.TypeOf(err))
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}

	if err := ValidateResumeScore(nil); err == nil {
		t.Error("expected error for nil score")
	}
}

func TestValidateSimplifiedJob(t *testing.T) {
	tests := []struct {
		name    string
		job     *types.SimplifiedJob
		wantErr bool
	}{
		{
			name: "valid",
			job: &types.SimplifiedJob{
				Company:        "Acme",
				PositionTitle:  "Backend Engineer",
				WorkLocation:   types.WorkLocationRemote,
				EmploymentType: types.EmploymentFullTime,
				Keywords:       []string{"go", "postgres"},
			},
		},
		{
			// Listings that never name the company extract with empty
			// fields rather than fabricated ones, and still validate.
			name: "unnamed company",
			job: &types.SimplifiedJob{
				PositionTitle: "Backend Engineer",
			},
		},
		{
			name: "empty extraction",
			job:  &types.SimplifiedJob{},
		},
		{
			name: "bad work location",
			job: &types.SimplifiedJob{
				Company:       "Acme",
				PositionTitle: "Backend Engineer",
				WorkLocation:  "on_the_moon",
			},
			wantErr: true,
		},
		{
			name: "duplicate keywords",
			job: &types.SimplifiedJob{
				Company:       "Acme",
				PositionTitle: "Backend Engineer",
				Keywords:      []string{"go", "go"},
			},
			wantErr: true,
		},
		{
			name: "bad url",
			job: &types.SimplifiedJob{
				Company:       "Acme",
				PositionTitle: "Backend Engineer",
				JobURL:        "not a url",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSimplifiedJob(tt.job)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateScoreRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *types.ScoreRequest
		wantErr bool
	}{
		{
			name: "resume only",
			req:  &types.ScoreRequest{Resume: types.ScoreResumeInput{RawText: "worked at Acme"}},
		},
		{
			name: "resume with job",
			req: &types.ScoreRequest{
				Resume: types.ScoreResumeInput{RawText: "worked at Acme"},
				Job:    &types.ScoreJobInput{Description: "backend role"},
			},
		},
		{name: "nil body", req: nil, wantErr: true},
		{
			name:    "blank resume text",
			req:     &types.ScoreRequest{Resume: types.ScoreResumeInput{RawText: "   "}},
			wantErr: true,
		},
		{
			name: "empty job object",
			req: &types.ScoreRequest{
				Resume: types.ScoreResumeInput{RawText: "worked at Acme"},
				Job:    &types.ScoreJobInput{},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScoreRequest(tt.req)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeJobRecord(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantCompany string
		wantErr     bool
	}{
		{
			name:        "modern field",
			raw:         `{"company":"Acme","positionTitle":"Engineer"}`,
			wantCompany: "Acme",
		},
		{
			name:        "legacy field",
			raw:         `{"company_name":"Initech","positionTitle":"Engineer"}`,
			wantCompany: "Initech",
		},
		{
			name:        "both fields prefers modern",
			raw:         `{"company":"Acme","company_name":"Initech","positionTitle":"Engineer"}`,
			wantCompany: "Acme",
		},
		{name: "not an object", raw: `[1,2,3]`, wantErr: true},
		{name: "wrong field type", raw: `{"company":"Acme","keywords":"go"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NormalizeJobRecord([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if job.Company != tt.wantCompany {
				t.Errorf("company = %q, want %q", job.Company, tt.wantCompany)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	if got := ClampScore(-5); got != 0 {
		t.Errorf("ClampScore(-5) = %v, want 0", got)
	}
	if got := ClampScore(150); got != 100 {
		t.Errorf("ClampScore(150) = %v, want 100", got)
	}
	if got := ClampScore(42); got != 42 {
		t.Errorf("ClampScore(42) = %v, want 42", got)
	}
}
