package types

import (
	"encoding/json"
	"fmt"
)

// ScoreMetric is a scored aspect with its justification
type ScoreMetric struct {
	Score  float64 `json:"score" validate:"min=0,max=100"` // 0-100
	Reason string  `json:"reason,omitempty"`
}

// KeywordMatch reports keyword overlap between a resume and a job
type KeywordMatch struct {
	Score           float64  `json:"score" validate:"min=0,max=100"` // percent matched, 0-100
	MatchedKeywords []string `json:"matchedKeywords"`
	MissingKeywords []string `json:"missingKeywords"`
	Reason          string   `json:"reason,omitempty"`
}

// SkillsMatch maps resume skills onto the job's hard and soft skill asks
type SkillsMatch struct {
	Score      float64  `json:"score" validate:"min=0,max=100"` // 0-100
	HardSkills []string `json:"hardSkills"`
	SoftSkills []string `json:"softSkills"`
	Reason     string   `json:"reason,omitempty"`
}

// ExperienceRelevance reports how well past positions align with the role
type ExperienceRelevance struct {
	Score         float64  `json:"score" validate:"min=0,max=100"` // 0-100
	TopAlignments []string `json:"topAlignments"`
	Gaps          []string `json:"gaps"`
	Reason        string   `json:"reason,omitempty"`
}

// JobAlignment is the job-specific scoring block, present only when a job
// description was supplied with the scoring request
type JobAlignment struct {
	KeywordMatch        KeywordMatch        `json:"keywordMatch"`
	SkillsMatch         SkillsMatch         `json:"skillsMatch"`
	ExperienceRelevance ExperienceRelevance `json:"experienceRelevance"`
}

// MiscMetric is a free-form metric that arrives either as a bare number or as
// a {score, reason} pair
type MiscMetric struct {
	Score  float64 `json:"score" validate:"min=0,max=100"` // 0-100
	Reason string  `json:"reason,omitempty"`
}

// UnmarshalJSON accepts both a bare number and an object form.
func (m *MiscMetric) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		m.Score = n
		m.Reason = ""
		return nil
	}

	type plain MiscMetric
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("miscellaneous metric must be a number or a {score, reason} object: %w", err)
	}
	*m = MiscMetric(p)
	return nil
}

// MarshalJSON always emits the object form.
func (m MiscMetric) MarshalJSON() ([]byte, error) {
	type plain MiscMetric
	return json.Marshal(plain(m))
}

// ResumeScore is the full structured result of one scoring request.
// JobAlignment and JobSpecificImprovements are either both present or both
// absent, and their presence must equal IsTailoredResume.
type ResumeScore struct {
	OverallScore            ScoreMetric           `json:"overallScore"`
	Completeness            ScoreMetric           `json:"completeness"`
	ImpactScore             ScoreMetric           `json:"impactScore"`
	RoleMatch               ScoreMetric           `json:"roleMatch"`
	JobAlignment            *JobAlignment         `json:"jobAlignment,omitempty"`
	Miscellaneous           map[string]MiscMetric `json:"miscellaneous,omitempty"`
	OverallImprovements     []string              `json:"overallImprovements"`
	JobSpecificImprovements []string              `json:"jobSpecificImprovements,omitempty"`
	IsTailoredResume        bool                  `json:"isTailoredResume"`
}
