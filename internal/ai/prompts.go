package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ScoreResume  string
	FormatJob    string
	TailorResume string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ScoreResume  string
	FormatJob    string
	TailorResume string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ScoreResume: `You are an expert resume reviewer producing structured, evidence-based scores. Your core principles are:

- Every score must be a number between 0 and 100
- Every score must come with a concrete reason grounded in the resume text
- Be consistent: the same resume must always earn similar scores
- Never reward content that is not actually present in the resume

You evaluate resumes on completeness, measurable impact, and fit for the
target role, and when a job description is supplied you additionally measure
keyword overlap, skills coverage, and experience relevance against it.`,

	FormatJob: `You are an AI assistant specializing in structured data extraction from job listings. Strictly adhere to the schema. If a field is missing or uncertain, return "" (empty string).

For the "description" field:
1. Start with 3-5 bullet points of the most important responsibilities (each starting with "• " on a new line).
2. Then include a clean paragraph version of the full job description with non-job fluff removed.`,

	TailorResume: `You are an advanced AI resume transformer that specializes in optimizing resumes for target roles using ATS-aware strategies. Your mission is to transform the provided resume into a highly targeted, ATS-friendly document that precisely aligns with the job description.

**Core Objectives:**
1. Integrate job-specific terminology and reorder content to foreground the most relevant experiences.
2. Use the STAR framework for bullets where possible (Situation, Task, Action, Result) without inventing facts.
3. Enhance clarity, quantify impact when supported by the resume, and keep claims truthful.

**Strict Constraints:**
- Preserve factual accuracy; do not fabricate tools, versions, or experiences.
- Maintain original employment chronology.
- If a perfect match is missing, map to the closest relevant concept.
- Remove any internal annotations from the final output.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	ScoreResume: `You are scoring a resume. Return JSON that matches the response schema exactly.

Resume JSON:
-----
%s
-----

REQUIREMENT: include a 'miscellaneous' object with 2-3 metrics, each shaped as:
{
  "metricName": { "score": number, "reason": "string" }
}`,

	FormatJob: `Analyze this job listing and return data matching the schema exactly.

TASKS:
1. ESSENTIAL INFO: company, position title, URL, location, salary. Description must include 3-5 key bullets first.
2. KEYWORDS:
   - Technical Skills
   - Soft Skills
   - Industry Knowledge
   - Required Qualifications
   - Responsibilities

Rules:
- Deduplicate skills/keywords.
- Keep exact keyword casing (e.g., "React.js" stays "React.js").
- Infer work location and employment type from context if present, else leave them empty.
- For any unknown field, return "".

FORMAT THE FOLLOWING JOB LISTING AS A JSON OBJECT:
%s`,

	TailorResume: `This is the Resume:
%s

This is the Job Description:
%s`,
}

// scoreTailoredAddendum is appended to the scoring prompt when a job
// description accompanies the request
const scoreTailoredAddendum = `
This is a tailored resume. Job JSON:
-----
%s
-----

Include 'jobAlignment' covering:
- KEYWORD MATCH (percent, matched examples, missing keywords)
- SKILLS MATCH (hard/soft skill mapping)
- EXPERIENCE RELEVANCE (top 3 alignments, 1-2 gaps)
Set isTailoredResume=true and add jobSpecificImprovements (3-5 items).`

// scoreBaseAddendum is appended when the resume is scored on its own
const scoreBaseAddendum = `
This is a base resume. Set isTailoredResume=false and omit jobAlignment and jobSpecificImprovements.`

// resolvePrompt selects the correct prompt string based on priority:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. A hardcoded default prompt.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
