// Package schema enforces the data contracts for resume scores, simplified
// jobs, and simplified resumes, at both the request boundary and the AI
// output boundary.
package schema

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "resumelens/internal/errors"
	"resumelens/internal/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldPath renders a validator namespace like "ResumeScore.OverallScore.Score"
// as a JSON-ish path the caller can act on.
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:] // drop the root struct name
	}
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}

func violation(err error, subject string) error {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		first := errs[0]
		return apperrors.NewSchemaViolation(
			fmt.Sprintf("%s: field %s failed %s validation", subject, fieldPath(first.Namespace()), first.Tag()),
			err,
		)
	}
	return apperrors.NewSchemaViolation(fmt.Sprintf("%s: invalid value", subject), err)
}

// ValidateResumeScore checks a purported ResumeScore against the contract:
// every score in [0,100], and jobAlignment / jobSpecificImprovements both
// present exactly when isTailoredResume is set. Out-of-range scores fail
// validation here; they are never clamped at this boundary.
func ValidateResumeScore(score *types.ResumeScore) error {
	if score == nil {
		return apperrors.NewSchemaViolation("resume score: missing value", nil)
	}
	if err := validate.Struct(score); err != nil {
		return violation(err, "resume score")
	}
	for name, metric := range score.Miscellaneous {
		if metric.Score < 0 || metric.Score > 100 {
			return apperrors.NewSchemaViolation(
				fmt.Sprintf("resume score: field miscellaneous.%s.score outside [0,100]", name), nil)
		}
	}

	hasAlignment := score.JobAlignment != nil
	hasJobImprovements := score.JobSpecificImprovements != nil
	if hasAlignment != hasJobImprovements {
		return apperrors.NewSchemaViolation(
			"resume score: jobAlignment and jobSpecificImprovements must be present together", nil)
	}
	if score.IsTailoredResume != hasAlignment {
		return apperrors.NewSchemaViolation(
			fmt.Sprintf("resume score: isTailoredResume=%t does not match jobAlignment presence", score.IsTailoredResume), nil)
	}

	return nil
}

// ValidateSimplifiedJob checks an extracted job record, deduplicating nothing:
// duplicate keywords are a contract violation the prompt already forbids.
func ValidateSimplifiedJob(job *types.SimplifiedJob) error {
	if job == nil {
		return apperrors.NewSchemaViolation("job: missing value", nil)
	}
	if err := validate.Struct(job); err != nil {
		return violation(err, "job")
	}
	return nil
}

// ValidateSimplifiedResume checks a structured resume body.
func ValidateSimplifiedResume(resume *types.SimplifiedResume) error {
	if resume == nil {
		return apperrors.NewSchemaViolation("resume: missing value", nil)
	}
	if err := validate.Struct(resume); err != nil {
		return violation(err, "resume")
	}
	return nil
}

// ValidateScoreRequest checks an inbound public scoring request. Only the
// fields the pipeline depends on are enforced.
func ValidateScoreRequest(req *types.ScoreRequest) error {
	if req == nil {
		return apperrors.NewSchemaViolation("request: missing body", nil)
	}
	if strings.TrimSpace(req.Resume.RawText) == "" {
		return apperrors.NewSchemaViolation("request: resume.raw_text is required", nil)
	}
	if req.Job != nil && strings.TrimSpace(req.Job.Description) == "" {
		return apperrors.NewSchemaViolation("request: job.description must be non-empty when job is present", nil)
	}
	return nil
}

// ClampScore bounds a score into [0,100] for display purposes. Consumers that
// render scores use this; the validation boundary never does.
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
