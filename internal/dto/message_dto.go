package dto

import "github.com/google/uuid"

// ProcessDocumentMessage is the payload published to the ingestion pipeline
// after a document upload.
type ProcessDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
	Filepath   string    `json:"filepath"`
	Filetype   string    `json:"filetype"`
}
