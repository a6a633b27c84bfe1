package handler

import (
	"knowledgehub/internal/audit"
	"knowledgehub/internal/compliance"
	"knowledgehub/internal/document/models"
	"knowledgehub/internal/document/service"
	"knowledgehub/internal/duplicate"
)

// DocumentResponse is the API shape of a document. Average rating is derived
// on the way out; the raw per-user rating map stays internal.
type DocumentResponse struct {
	*models.Document
	AverageRating float64 `json:"average_rating"`
	LikeCount     int     `json:"like_count"`

	Ratings any `json:"ratings,omitempty"`
	Likes   any `json:"likes,omitempty"`
}

func documentResponse(doc *models.Document) DocumentResponse {
	return DocumentResponse{
		Document:      doc,
		AverageRating: doc.AverageRating(),
		LikeCount:     len(doc.Likes),
	}
}

func documentListResponse(docs []*models.Document) documentList {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentResponse(doc))
	}
	return documentList{Documents: out}
}

type documentList struct {
	Documents []DocumentResponse `json:"documents"`
}

// UploadResponse wraps a successful upload.
type UploadResponse struct {
	Document           DocumentResponse   `json:"document"`
	ComplianceIssues   []compliance.Issue `json:"compliance_issues,omitempty"`
	AppendedToExisting bool               `json:"appended_to_existing,omitempty"`
	BadgesUnlocked     []string           `json:"badges_unlocked,omitempty"`
}

func uploadResponse(result *service.UploadResult) UploadResponse {
	return UploadResponse{
		Document:           documentResponse(result.Document),
		ComplianceIssues:   result.ComplianceIssues,
		AppendedToExisting: result.AppendedToExisting,
		BadgesUnlocked:     result.BadgesUnlocked,
	}
}

// DuplicateWarningResponse carries the ranked candidate list so the caller
// can branch on it distinctly from hard errors.
type DuplicateWarningResponse struct {
	Error            string                `json:"error"`
	ErrorDescription string                `json:"error_description"`
	Duplicates       []duplicate.Candidate `json:"duplicates"`
	ComplianceIssues []compliance.Issue    `json:"compliance_issues,omitempty"`
}

func duplicateWarningResponse(result *service.UploadResult) DuplicateWarningResponse {
	return DuplicateWarningResponse{
		Error:            "duplicate_warning",
		ErrorDescription: "similar documents already exist; re-submit with confirm_duplicate to add a version",
		Duplicates:       result.Duplicates,
		ComplianceIssues: result.ComplianceIssues,
	}
}

type ratingResponse struct {
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

type likeResponse struct {
	Liked bool `json:"liked"`
}

type historyResponse struct {
	Entries []audit.Entry `json:"entries"`
}
