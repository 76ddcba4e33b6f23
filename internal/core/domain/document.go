package domain

import "time"

// Document types offered by the uploader.
const (
	DocPetition       = "petition"
	DocContract       = "contract"
	DocDecision       = "decision"
	DocCorrespondence = "correspondence"
	DocEvidence       = "evidence"
	DocOther          = "other"
)

// MaxDocumentSize is the upload size limit in bytes.
const MaxDocumentSize = 10 << 20

var documentTypes = map[string]struct{}{
	DocPetition:       {},
	DocContract:       {},
	DocDecision:       {},
	DocCorrespondence: {},
	DocEvidence:       {},
	DocOther:          {},
}

// AcceptedMIMETypes lists the file formats the uploader accepts.
var AcceptedMIMETypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/jpeg",
	"image/png",
}

// DocumentTypes lists the known document types in display order.
var DocumentTypes = []string{DocPetition, DocContract, DocDecision, DocCorrespondence, DocEvidence, DocOther}

// IsDocumentType reports whether t is one of the known document types.
func IsDocumentType(t string) bool {
	_, ok := documentTypes[t]
	return ok
}

// Document is the cached metadata of an uploaded document.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	DateAdded  time.Time `json:"dateAdded"`
	Tags       []string  `json:"tags"`
	ClientName string    `json:"clientName"`
}

// DocumentStats summarises a document list for the dashboard cards.
type DocumentStats struct {
	TotalDocuments int `json:"total_documents"`
	ClientCount    int `json:"client_count"`
}
