package domain

import (
	"strings"
	"time"
	"unicode"
)

// StorageKey derives the object key for a correlation id.
func StorageKey(correlationID string) string {
	return correlationID + ".pdf"
}

// ValidCorrelationID reports whether id can safely be used as an object key stem.
func ValidCorrelationID(id string) bool {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return false
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// StorageRef describes a document's presence in the object store.
type StorageRef struct {
	Exists bool   `json:"exists"`
	Key    string `json:"key,omitempty"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PublicationRef describes a document's presence on the publishing backend.
type PublicationRef struct {
	Exists      bool       `json:"exists"`
	Slug        string     `json:"slug,omitempty"`
	URL         string     `json:"url,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// PublicationRecord is the unit of truth for one uploaded document.
type PublicationRecord struct {
	CorrelationID    string `json:"correlation_id"`
	DownloadFilename string `json:"download_filename"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	SizeBytes        int64  `json:"size_bytes"`
	PageCount        int    `json:"page_count,omitempty"`
	EstimatedWait    int    `json:"estimated_wait_secs"`
	// DraftID is the publishing backend's draft handle; it becomes
	// Publication.Slug only once conversion is DONE.
	DraftID         string          `json:"draft_id,omitempty"`
	Storage         StorageRef      `json:"storage"`
	Publication     PublicationRef  `json:"publication"`
	ConversionState ConversionState `json:"conversion_state,omitempty"`
}

// Complete reports whether both backends hold the document.
func (r *PublicationRecord) Complete() bool {
	return r != nil && r.Storage.Exists && r.Publication.Exists
}

// RecordRef addresses an existing record on both backends. The publishing
// backend knows documents only by its own slug.
type RecordRef struct {
	CorrelationID string
	Slug          string
}

// ValidationResult is the composite existence view returned by Validate.
type ValidationResult struct {
	Success     bool           `json:"success"`
	Storage     StorageRef     `json:"storage"`
	Publication PublicationRef `json:"publication"`
}

// BackendOutcome is the result of one backend's deletion.
type BackendOutcome struct {
	Attempted bool   `json:"attempted"`
	Deleted   bool   `json:"deleted"`
	Error     string `json:"error,omitempty"`
}

// RetractResult collects per-backend deletion outcomes.
type RetractResult struct {
	Success     bool           `json:"success"`
	Key         string         `json:"key"`
	Storage     BackendOutcome `json:"storage"`
	Publication BackendOutcome `json:"publication"`
}

// Partial reports whether some attempted deletion did not succeed.
func (r *RetractResult) Partial() bool {
	return r != nil && !r.Success
}

// Inconsistency describes a record that an operation left on only one backend.
type Inconsistency struct {
	Operation         string    `json:"operation"`
	CorrelationID     string    `json:"correlation_id"`
	Key               string    `json:"key"`
	Slug              string    `json:"slug,omitempty"`
	StorageExists     bool      `json:"storage_exists"`
	PublicationExists bool      `json:"publication_exists"`
	Detail            string    `json:"detail"`
	OccurredAt        time.Time `json:"occurred_at"`
}
