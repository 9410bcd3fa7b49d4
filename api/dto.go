/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures the API speaks that are not case documents
  themselves. Case bodies are loose JSON handled by factory.CaseFactory, so
  a form can post strings for numbers and partial records.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Wrappers

SEE ALSO:
  - handlers.go: Uses these types
  - factory/case.go: Case document codec
*/
package api

import (
	"time"

	"github.com/warp/medevac-engine/medevac"
)

// CaseDTO is a stored case with its derived fields.
type CaseDTO struct {
	ID        string                `json:"id"`
	Version   int                   `json:"version"`
	UpdatedAt string                `json:"updatedAt"`
	Record    medevac.CaseRecord    `json:"record"`
	Derived   medevac.DerivedFields `json:"derived"`
}

// CaseListResponse wraps the case list.
type CaseListResponse struct {
	Cases []CaseDTO `json:"cases"`
	Count int       `json:"count"`
}

// RevisionDTO is one entry of a case's history.
type RevisionDTO struct {
	ID        string  `json:"id"`
	Version   int     `json:"version"`
	CreatedAt string  `json:"createdAt"`
	Case      CaseDTO `json:"case"`
}

// PostListResponse wraps the post table.
type PostListResponse struct {
	Posts []medevac.Post `json:"posts"`
	Count int            `json:"count"`
}

// RefreshResponse reports a post table refresh.
type RefreshResponse struct {
	Posts int `json:"posts"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCaseDTO(doc medevac.CaseDocument) CaseDTO {
	return CaseDTO{
		ID:        doc.ID,
		Version:   doc.Version,
		UpdatedAt: doc.UpdatedAt,
		Record:    doc.Record,
		Derived:   doc.Derived,
	}
}

func toRevisionDTO(rev medevac.Revision) RevisionDTO {
	return RevisionDTO{
		ID:        rev.ID,
		Version:   rev.Version,
		CreatedAt: rev.CreatedAt.UTC().Format(time.RFC3339),
		Case:      toCaseDTO(rev.Document),
	}
}
