// Package documents stores scans attached to a case: referral letters,
// prior prescriptions, lab printouts photographed at the bedside. Files
// are held whole in memory until the charting workflow picks them up;
// OCR and long term archival happen outside this service.
package documents

import (
	"errors"
	"time"
)

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrInvalidCategory    = errors.New("unknown document category")
	ErrMissingFileName    = errors.New("file name is required")
	ErrMissingCaseID      = errors.New("case id is required")
)

// MaxScanSize caps a single upload. Bedside scans are phone photos or
// single page PDFs; anything larger is almost certainly the wrong file.
const MaxScanSize = 25 * 1024 * 1024

// AllowedContentTypes lists the formats the intake tablets produce.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/heic":      true,
	"application/pdf": true,
}

var AllowedCategories = map[string]bool{
	"referral-note":      true,
	"prior-prescription": true,
	"lab-report":         true,
	"imaging-report":     true,
	"insurance":          true,
	"other":              true,
}

// Document describes one stored scan. Hash is the hex SHA-256 of the
// content so clients can skip re-uploading files they already sent.
type Document struct {
	ID          string    `json:"id"`
	CaseID      string    `json:"case_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Category    string    `json:"category"`
	Hash        string    `json:"hash"`
	Note        string    `json:"note,omitempty"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
