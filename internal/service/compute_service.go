package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/ardiansyah/talent-match/internal/model"
)

// ErrMalformedPayload means the compute backend answered, but the payload
// does not match the artifact schema. Retrying the same input will produce
// the same shape, so callers treat it as permanent.
var ErrMalformedPayload = errors.New("malformed compute payload")

// EmbeddingPayload is the compute result for a resume embedding.
type EmbeddingPayload struct {
	Skills               []float32
	WorkExperience       []float32
	Certifications       []float32
	TotalExperienceYears float64
	ModelName            string
	ModelVersion         string
}

// PostingEmbeddingPayload is the compute result for a job posting embedding.
type PostingEmbeddingPayload struct {
	Description  []float32
	Requirements []float32
	Skills       []float32
	ModelName    string
	ModelVersion string
}

// ScorePayload is the compute result for a resume score.
type ScorePayload struct {
	CompletenessScore        float64
	ExperienceScore          float64
	SkillsScore              float64
	CertificationScore       float64
	TotalScore               float64
	Grade                    string
	OverallMessage           string
	EstimatedExperienceYears float64
	Strengths                []string
	Improvements             []string
	Recommendations          []string
}

// ComparisonPayload is the compute result for a resume/job-posting match.
type ComparisonPayload struct {
	SkillSimilarity       float64
	ExperienceSimilarity  float64
	RequirementSimilarity float64
	TotalScore            float64
	MatchedSkills         []string
	MissingSkills         []string
	Strengths             []string
	Improvements          []string
}

// ComputeServiceInterface is the external compute boundary: given current
// entity data it returns a structured payload or an error. The pipeline
// never assumes how the computation happens; this implementation uses
// Gemini for embeddings and comparisons and OpenRouter for scoring, but a
// stub works just as well.
type ComputeServiceInterface interface {
	ResumeEmbedding(ctx context.Context, resume *model.Resume) (*EmbeddingPayload, error)
	JobPostingEmbedding(ctx context.Context, posting *model.JobPosting) (*PostingEmbeddingPayload, error)
	ResumeScore(ctx context.Context, resume *model.Resume) (*ScorePayload, error)
	Comparison(ctx context.Context, resume *model.Resume, posting *model.JobPosting) (*ComparisonPayload, error)
}

const computeModelVersion = "1.0"

type ComputeService struct {
	gemini     GeminiServiceInterface
	openRouter OpenRouterServiceInterface
	log        *logrus.Entry
}

func NewComputeService(gemini GeminiServiceInterface, openRouter OpenRouterServiceInterface) *ComputeService {
	return &ComputeService{
		gemini:     gemini,
		openRouter: openRouter,
		log:        logrus.WithField("component", "compute"),
	}
}

func (s *ComputeService) ResumeEmbedding(ctx context.Context, resume *model.Resume) (*EmbeddingPayload, error) {
	payload := &EmbeddingPayload{
		TotalExperienceYears: totalExperienceYears(resume.WorkExperience),
		ModelName:            s.gemini.EmbeddingModel(),
		ModelVersion:         computeModelVersion,
	}

	sections := []struct {
		name string
		text string
		dst  *[]float32
	}{
		{"skills", skillsText(resume.Skills), &payload.Skills},
		{"work_experience", workExperienceText(resume.WorkExperience), &payload.WorkExperience},
		{"certifications", certificationsText(resume.Certifications), &payload.Certifications},
	}

	for _, section := range sections {
		if section.text == "" {
			continue
		}
		vec, err := s.gemini.GenerateEmbedding(ctx, section.text)
		if err != nil {
			return nil, fmt.Errorf("embed resume %s: %w", section.name, err)
		}
		*section.dst = vec
	}

	if payload.Skills == nil && payload.WorkExperience == nil && payload.Certifications == nil {
		return nil, fmt.Errorf("%w: resume has no embeddable content", ErrMalformedPayload)
	}

	return payload, nil
}

func (s *ComputeService) JobPostingEmbedding(ctx context.Context, posting *model.JobPosting) (*PostingEmbeddingPayload, error) {
	payload := &PostingEmbeddingPayload{
		ModelName:    s.gemini.EmbeddingModel(),
		ModelVersion: computeModelVersion,
	}

	sections := []struct {
		name string
		text string
		dst  *[]float32
	}{
		{"description", strings.TrimSpace(posting.Title + "\n" + posting.Description), &payload.Description},
		{"requirements", strings.Join(posting.Requirements, "\n"), &payload.Requirements},
		{"skills", strings.Join(posting.Skills, ", "), &payload.Skills},
	}

	for _, section := range sections {
		if section.text == "" {
			continue
		}
		vec, err := s.gemini.GenerateEmbedding(ctx, section.text)
		if err != nil {
			return nil, fmt.Errorf("embed posting %s: %w", section.name, err)
		}
		*section.dst = vec
	}

	if payload.Description == nil {
		return nil, fmt.Errorf("%w: posting has no description to embed", ErrMalformedPayload)
	}

	return payload, nil
}

func (s *ComputeService) ResumeScore(ctx context.Context, resume *model.Resume) (*ScorePayload, error) {
	prompt := fmt.Sprintf(`
You are an experienced technical recruiter. Score the following resume.

Return your answer STRICTLY in JSON format with this schema:
{
  "completeness_score": <number 0-100, how complete the profile is>,
  "experience_score": <number 0-100, depth and relevance of work history>,
  "skills_score": <number 0-100, breadth and market value of skills>,
  "certification_score": <number 0-100>,
  "total_score": <number 0-100, weighted overall>,
  "overall_message": "<one paragraph summary>",
  "estimated_experience_years": <number>,
  "strengths": ["<string>", ...],
  "improvements": ["<string>", ...],
  "recommendations": ["<string>", ...]
}

Resume:
%s
`, resumeText(resume))

	raw, err := s.openRouter.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("score resume: %w", err)
	}

	doc := stripJSONFences(raw)
	if !gjson.Get(doc, "total_score").Exists() {
		return nil, fmt.Errorf("%w: missing total_score in %q", ErrMalformedPayload, truncate(raw, 200))
	}

	total := gjson.Get(doc, "total_score").Float()
	return &ScorePayload{
		CompletenessScore:        gjson.Get(doc, "completeness_score").Float(),
		ExperienceScore:          gjson.Get(doc, "experience_score").Float(),
		SkillsScore:              gjson.Get(doc, "skills_score").Float(),
		CertificationScore:       gjson.Get(doc, "certification_score").Float(),
		TotalScore:               total,
		Grade:                    GradeFor(total),
		OverallMessage:           gjson.Get(doc, "overall_message").String(),
		EstimatedExperienceYears: gjson.Get(doc, "estimated_experience_years").Float(),
		Strengths:                stringList(doc, "strengths"),
		Improvements:             stringList(doc, "improvements"),
		Recommendations:          stringList(doc, "recommendations"),
	}, nil
}

func (s *ComputeService) Comparison(ctx context.Context, resume *model.Resume, posting *model.JobPosting) (*ComparisonPayload, error) {
	prompt := fmt.Sprintf(`
You are an experienced technical recruiter. Compare the candidate's resume
against the job posting.

Return your answer STRICTLY in JSON format with this schema:
{
  "skill_similarity": <number 0-100>,
  "experience_similarity": <number 0-100>,
  "requirement_similarity": <number 0-100>,
  "total_score": <number 0-100, weighted overall match>,
  "matched_skills": ["<string>", ...],
  "missing_skills": ["<string>", ...],
  "strengths": ["<string>", ...],
  "improvements": ["<string>", ...]
}

Job posting:
Title: %s
Description: %s
Requirements: %s
Skills: %s

Resume:
%s
`, posting.Title, posting.Description,
		strings.Join(posting.Requirements, "; "),
		strings.Join(posting.Skills, ", "),
		resumeText(resume))

	raw, err := s.gemini.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("compare resume %s posting %s: %w", resume.ID, posting.ID, err)
	}

	doc := stripJSONFences(raw)
	if !gjson.Get(doc, "total_score").Exists() {
		return nil, fmt.Errorf("%w: missing total_score in %q", ErrMalformedPayload, truncate(raw, 200))
	}

	return &ComparisonPayload{
		SkillSimilarity:       gjson.Get(doc, "skill_similarity").Float(),
		ExperienceSimilarity:  gjson.Get(doc, "experience_similarity").Float(),
		RequirementSimilarity: gjson.Get(doc, "requirement_similarity").Float(),
		TotalScore:            gjson.Get(doc, "total_score").Float(),
		MatchedSkills:         stringList(doc, "matched_skills"),
		MissingSkills:         stringList(doc, "missing_skills"),
		Strengths:             stringList(doc, "strengths"),
		Improvements:          stringList(doc, "improvements"),
	}, nil
}

// GradeFor maps a 0-100 score onto the letter-grade scale.
func GradeFor(total float64) string {
	switch {
	case total >= 95:
		return "A+"
	case total >= 90:
		return "A"
	case total >= 85:
		return "B+"
	case total >= 80:
		return "B"
	case total >= 75:
		return "C+"
	case total >= 70:
		return "C"
	case total >= 60:
		return "D"
	default:
		return "F"
	}
}

func skillsText(skills []model.Skill) string {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}

func workExperienceText(entries []model.WorkExperience) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s at %s", e.Title, e.Company)
		if e.Description != "" {
			fmt.Fprintf(&b, ": %s", e.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func certificationsText(certs []model.Certification) string {
	names := make([]string, 0, len(certs))
	for _, c := range certs {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func resumeText(r *model.Resume) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s %s\n", r.FirstName, r.LastName)
	if r.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", r.Summary)
	}
	if text := skillsText(r.Skills); text != "" {
		fmt.Fprintf(&b, "Skills: %s\n", text)
	}
	if text := workExperienceText(r.WorkExperience); text != "" {
		fmt.Fprintf(&b, "Work experience:\n%s\n", text)
	}
	if text := certificationsText(r.Certifications); text != "" {
		fmt.Fprintf(&b, "Certifications: %s\n", text)
	}
	return b.String()
}

func totalExperienceYears(entries []model.WorkExperience) float64 {
	currentYear := time.Now().Year()
	var total float64
	for _, e := range entries {
		if e.StartYear == 0 {
			continue
		}
		end := e.EndYear
		if end == 0 {
			end = currentYear
		}
		if end > e.StartYear {
			total += float64(end - e.StartYear)
		}
	}
	return total
}

func stringList(doc, path string) []string {
	var out []string
	for _, v := range gjson.Get(doc, path).Array() {
		out = append(out, v.String())
	}
	return out
}

// stripJSONFences removes a markdown code fence around an LLM JSON answer.
func stripJSONFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
