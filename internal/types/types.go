package types

import (
	"time"

	"github.com/google/uuid"
)

// WorkLocation categorizes where a job is performed
type WorkLocation string

const (
	WorkLocationRemote   WorkLocation = "remote"
	WorkLocationInPerson WorkLocation = "in_person"
	WorkLocationHybrid   WorkLocation = "hybrid"
)

// EmploymentType categorizes the employment arrangement
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full_time"
	EmploymentPartTime   EmploymentType = "part_time"
	EmploymentCoOp       EmploymentType = "co_op"
	EmploymentInternship EmploymentType = "internship"
)

// SimplifiedJob holds the structured fields extracted from a free-text job
// listing. Fields the listing never states come back empty, so none of them
// are mandatory.
type SimplifiedJob struct {
	Company        string         `json:"company"`
	PositionTitle  string         `json:"positionTitle"`
	JobURL         string         `json:"jobUrl,omitempty" validate:"omitempty,url"`
	Location       string         `json:"location,omitempty"`
	SalaryRange    string         `json:"salaryRange,omitempty"`
	WorkLocation   WorkLocation   `json:"workLocation" validate:"omitempty,oneof=remote in_person hybrid"`
	EmploymentType EmploymentType `json:"employmentType" validate:"omitempty,oneof=full_time part_time co_op internship"`
	Description    string         `json:"description,omitempty"`
	Keywords       []string       `json:"keywords" validate:"unique"`
}

// Job is a persisted job listing row
type Job struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	SimplifiedJob
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkExperience is a single position in a resume
type WorkExperience struct {
	Company  string   `json:"company" validate:"required"`
	Position string   `json:"position" validate:"required"`
	Location string   `json:"location,omitempty"`
	Dates    string   `json:"dates,omitempty"`
	Bullets  []string `json:"bullets"`
}

// Education is a single school entry in a resume
type Education struct {
	School string `json:"school" validate:"required"`
	Degree string `json:"degree,omitempty"`
	Field  string `json:"field,omitempty"`
	Dates  string `json:"dates,omitempty"`
}

// SkillGroup groups related skills under a category heading
type SkillGroup struct {
	Category string   `json:"category" validate:"required"`
	Items    []string `json:"items" validate:"min=1"`
}

// Project is a single project entry in a resume
type Project struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	Dates        string   `json:"dates,omitempty"`
}

// SimplifiedResume is a structured resume body, used both as the AI input
// (base resume) and the AI output (tailored content)
type SimplifiedResume struct {
	TargetRole     string           `json:"targetRole,omitempty"`
	WorkExperience []WorkExperience `json:"workExperience" validate:"dive"`
	Education      []Education      `json:"education" validate:"dive"`
	Skills         []SkillGroup     `json:"skills" validate:"dive"`
	Projects       []Project        `json:"projects" validate:"dive"`
}

// ApiKey is a caller-supplied credential for a specific AI provider.
// It lives only for the duration of a request and is never persisted.
type ApiKey struct {
	Service string    `json:"service"`
	Key     string    `json:"key"`
	AddedAt time.Time `json:"addedAt"`
}

// AIConfig is the complete per-request AI configuration: the requested model
// identifier plus any caller-supplied credentials
type AIConfig struct {
	Model   string   `json:"model"`
	APIKeys []ApiKey `json:"apiKeys"`
}

// ScoreRequest is the input for a public resume scoring call
type ScoreRequest struct {
	Resume ScoreResumeInput `json:"resume"`
	Job    *ScoreJobInput   `json:"job,omitempty"`
}

// ScoreResumeInput carries the raw resume text to score
type ScoreResumeInput struct {
	RawText      string `json:"raw_text"`
	IsBaseResume bool   `json:"is_base_resume,omitempty"`
}

// ScoreJobInput carries the job description a tailored resume is scored against
type ScoreJobInput struct {
	Description string `json:"description"`
}

// FormatJobInput is the input for extracting a SimplifiedJob from free text
type FormatJobInput struct {
	Text string `json:"text"`
}

// TailorResumeInput is the input for tailoring a resume to a job
type TailorResumeInput struct {
	Resume SimplifiedResume `json:"resume"`
	Job    SimplifiedJob    `json:"job"`
}

// JobListingFilters narrows a paginated job listing query
type JobListingFilters struct {
	WorkLocation   WorkLocation   `json:"workLocation,omitempty"`
	EmploymentType EmploymentType `json:"employmentType,omitempty"`
	Keywords       []string       `json:"keywords,omitempty"`
}

// JobListingParams is a paginated job listing request
type JobListingParams struct {
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Filters  *JobListingFilters `json:"filters,omitempty"`
}

// JobListingPage is one page of job listings
type JobListingPage struct {
	Jobs        []Job `json:"jobs"`
	TotalCount  int   `json:"totalCount"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
}
