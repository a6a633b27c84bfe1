package models

import (
	"time"

	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
	pstrings "knowledgehub/pkg/platform/strings"
)

// Status is the lifecycle state of a document. Transitions happen only
// through the lifecycle state machine; nothing else writes this field.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusArchived Status = "archived"
)

var validStatuses = map[Status]bool{
	StatusDraft:    true,
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
	StatusArchived: true,
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

// VersionRecord is one uploaded artifact revision. Records are append-only;
// reverting or deleting a version is unsupported so history stays auditable.
type VersionRecord struct {
	VersionNumber int       `json:"version_number"`
	FileURL       string    `json:"file_url,omitempty"`
	ExternalURL   string    `json:"external_url,omitempty"`
	UploaderID    id.UserID `json:"uploader_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Comment is one discussion entry. Deletion removes the entry without
// renumbering the rest.
type Comment struct {
	ID        id.CommentID `json:"id"`
	AuthorID  id.UserID    `json:"author_id"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"created_at"`
}

// Document is the aggregate root for one shared knowledge artifact. It owns
// its versions, ratings, comments, and likes as embedded collections; audit
// entries reference it by ID only.
type Document struct {
	ID          id.DocumentID `json:"id"`
	OwnerID     id.UserID     `json:"owner_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags"`
	Domain      string        `json:"domain"`
	Region      string        `json:"region"`
	Status      Status        `json:"status"`

	// Versions is append-only, ordered oldest first, numbered 1..n.
	Versions []VersionRecord `json:"versions"`

	// Ratings holds at most one entry per user; re-rating overwrites.
	Ratings map[id.UserID]int `json:"ratings"`

	Comments []Comment `json:"comments"`

	// Likes is a set keyed by user; toggling membership is idempotent.
	Likes map[id.UserID]bool `json:"likes"`

	ComplianceNotes string `json:"compliance_notes,omitempty"`
	IsSensitive     bool   `json:"is_sensitive"`
	FlagReason      string `json:"flag_reason,omitempty"`

	// RejectionReason is present only while Status is Rejected.
	RejectionReason string `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Revision is the optimistic concurrency counter compared-and-swapped on
	// every store write. Not part of the API surface.
	Revision uint64 `json:"-"`
}

const maxTitleLen = 256

// New validates invariants and builds a Document in Pending state with no
// versions yet; the first version is appended by the caller.
func New(docID id.DocumentID, ownerID id.UserID, title, description, domain, region string, tags []string, now time.Time) (*Document, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document title cannot be empty")
	}
	if len(title) > maxTitleLen {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document title must be 256 characters or less")
	}
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document owner is required")
	}

	return &Document{
		ID:          docID,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Tags:        pstrings.DedupeAndTrimLower(tags),
		Domain:      domain,
		Region:      region,
		Status:      StatusPending,
		Ratings:     map[id.UserID]int{},
		Likes:       map[id.UserID]bool{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AppendVersion appends the next version record and returns it. Version
// numbers are previous max + 1 (1 when empty); prior records are never
// replaced or reordered.
func (d *Document) AppendVersion(fileURL, externalURL string, uploaderID id.UserID, now time.Time) (VersionRecord, error) {
	if fileURL == "" && externalURL == "" {
		return VersionRecord{}, dErrors.New(dErrors.CodeInvariantViolation, "a version needs a file or an external URL")
	}
	record := VersionRecord{
		VersionNumber: len(d.Versions) + 1,
		FileURL:       fileURL,
		ExternalURL:   externalURL,
		UploaderID:    uploaderID,
		CreatedAt:     now,
	}
	d.Versions = append(d.Versions, record)
	d.UpdatedAt = now
	return record, nil
}

// CurrentVersion returns the latest version number, 0 when none exist.
func (d *Document) CurrentVersion() int {
	return len(d.Versions)
}

// SetRating records one user's 1-5 star rating. Re-rating overwrites the
// user's slot; firstRating tells the caller whether a reputation award is due.
func (d *Document) SetRating(raterID id.UserID, stars int, now time.Time) (firstRating bool, err error) {
	if stars < 1 || stars > 5 {
		return false, dErrors.New(dErrors.CodeInvariantViolation, "rating must be between 1 and 5")
	}
	if d.Ratings == nil {
		d.Ratings = map[id.UserID]int{}
	}
	_, rated := d.Ratings[raterID]
	d.Ratings[raterID] = stars
	d.UpdatedAt = now
	return !rated, nil
}

// AverageRating returns the mean of all ratings, 0 when unrated.
func (d *Document) AverageRating() float64 {
	if len(d.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, stars := range d.Ratings {
		sum += stars
	}
	return float64(sum) / float64(len(d.Ratings))
}

// ToggleLike flips the user's like and reports the new membership.
func (d *Document) ToggleLike(userID id.UserID, now time.Time) (liked bool) {
	if d.Likes == nil {
		d.Likes = map[id.UserID]bool{}
	}
	if d.Likes[userID] {
		delete(d.Likes, userID)
		d.UpdatedAt = now
		return false
	}
	d.Likes[userID] = true
	d.UpdatedAt = now
	return true
}

// AddComment appends a comment and returns it.
func (d *Document) AddComment(commentID id.CommentID, authorID id.UserID, text string, now time.Time) (Comment, error) {
	if text == "" {
		return Comment{}, dErrors.New(dErrors.CodeInvariantViolation, "comment text cannot be empty")
	}
	comment := Comment{
		ID:        commentID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: now,
	}
	d.Comments = append(d.Comments, comment)
	d.UpdatedAt = now
	return comment, nil
}

// DeleteComment removes the comment with the given ID. The remaining entries
// keep their positions and IDs.
func (d *Document) DeleteComment(commentID id.CommentID, now time.Time) error {
	for i, comment := range d.Comments {
		if comment.ID == commentID {
			d.Comments = append(d.Comments[:i], d.Comments[i+1:]...)
			d.UpdatedAt = now
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "comment not found")
}

// Clone returns a deep copy so store reads never alias store-held state.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Tags = append([]string(nil), d.Tags...)
	out.Versions = append([]VersionRecord(nil), d.Versions...)
	out.Comments = append([]Comment(nil), d.Comments...)
	out.Ratings = make(map[id.UserID]int, len(d.Ratings))
	for k, v := range d.Ratings {
		out.Ratings[k] = v
	}
	out.Likes = make(map[id.UserID]bool, len(d.Likes))
	for k, v := range d.Likes {
		out.Likes[k] = v
	}
	return &out
}
