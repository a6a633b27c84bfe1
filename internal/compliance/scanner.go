// Package compliance detects likely PII and sensitivity markers in free text.
// Findings never block an upload; they mark the document for governance review.
package compliance

import (
	"regexp"
	"strings"
)

// IssueType classifies a finding.
type IssueType string

const (
	// TypePII flags likely personal data (national IDs, card numbers, emails).
	TypePII IssueType = "PII"
	// TypeSensitivity flags wording that suggests restricted distribution.
	TypeSensitivity IssueType = "Sensitivity"
)

// Severity ranks a finding for reviewer triage.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Issue is one finding produced by Scan.
type Issue struct {
	Type     IssueType `json:"type"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

// patternCheck is one regex rule. The list is fixed and ordered so scan output
// is deterministic for a given text.
type patternCheck struct {
	re      *regexp.Regexp
	message string
}

var piiChecks = []patternCheck{
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "text contains an SSN-like number"},
	{regexp.MustCompile(`\b(?:\d[ -]?){15}\d\b`), "text contains a 16-digit number resembling a card number"},
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "text contains an email address"},
}

// sensitivityKeywords are matched as case-insensitive substrings.
var sensitivityKeywords = []string{
	"confidential",
	"secret",
	"classified",
	"internal only",
	"private",
}

// Scan runs every check against the text and returns all findings, PII rules
// first, then sensitivity keywords, each in declaration order. Pure function.
func Scan(text string) []Issue {
	var issues []Issue

	for _, check := range piiChecks {
		if check.re.MatchString(text) {
			issues = append(issues, Issue{
				Type:     TypePII,
				Message:  check.message,
				Severity: SeverityHigh,
			})
		}
	}

	lower := strings.ToLower(text)
	for _, keyword := range sensitivityKeywords {
		if strings.Contains(lower, keyword) {
			issues = append(issues, Issue{
				Type:     TypeSensitivity,
				Message:  `text contains the sensitive keyword "` + keyword + `"`,
				Severity: SeverityMedium,
			})
		}
	}

	return issues
}

// HasHighSeverity reports whether any finding is high severity. A true result
// marks the document sensitive and populates its compliance notes.
func HasHighSeverity(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// Notes renders findings into the free-text compliance notes stored on the
// document, one finding per line.
func Notes(issues []Issue) string {
	if len(issues) == 0 {
		return ""
	}
	lines := make([]string, 0, len(issues))
	for _, issue := range issues {
		lines = append(lines, string(issue.Type)+"/"+string(issue.Severity)+": "+issue.Message)
	}
	return strings.Join(lines, "\n")
}
