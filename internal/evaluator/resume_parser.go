package evaluator

import (
	"context"
	"strings"
)

const resumeParserSystem = "You extract structured data from resumes. Return ONLY a JSON object."

// ResumeProfile 简历中提取出的结构化信息，原文抽取不在本服务范围内
type ResumeProfile struct {
	Skills          []string `json:"skills"`
	YearsExperience float64  `json:"yearsExperience"`
}

type ResumeParser interface {
	ParseResume(ctx context.Context, resumeText string) (*ResumeProfile, error)
}

type LLMResumeParser struct {
	completer Completer
}

func NewLLMResumeParser(c Completer) *LLMResumeParser {
	return &LLMResumeParser{completer: c}
}

func (p *LLMResumeParser) ParseResume(ctx context.Context, resumeText string) (*ResumeProfile, error) {
	if strings.TrimSpace(resumeText) == "" {
		return &ResumeProfile{}, nil
	}

	var sb strings.Builder
	sb.WriteString("List the technical skills the candidate claims in the resume below, one short name per skill ")
	sb.WriteString("(e.g. \"go\", \"sql\", \"system design\"), and the total years of professional experience.\n\n")
	sb.WriteString("## RESUME\n")
	sb.WriteString(truncate(resumeText, 12000))
	sb.WriteString("\n\nRespond as {\"skills\": [\"...\"], \"yearsExperience\": <number>}\n")

	resp, err := p.completer.Complete(ctx, resumeParserSystem, sb.String())
	if err != nil {
		return nil, err
	}
	var profile ResumeProfile
	if err := decodeJSON(resp, &profile); err != nil {
		return nil, err
	}
	profile.Skills = dedupSkills(profile.Skills)
	return &profile, nil
}

func dedupSkills(skills []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
