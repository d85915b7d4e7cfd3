package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// Metadata describes an ingested document.
type Metadata struct {
	Name       string    `json:"name"`
	FileType   string    `json:"file_type"`
	Hash       string    `json:"hash"` // SHA256 hex digest of the extracted text
	Chars      int       `json:"chars"`
	IngestedAt time.Time `json:"ingested_at"`
}

// NewMetadata describes a document's extracted text.
func NewMetadata(doc types.Document) Metadata {
	sum := sha256.Sum256([]byte(doc.ExtractedText))
	return Metadata{
		Name:       doc.OriginalName,
		FileType:   FileType(doc.OriginalName),
		Hash:       hex.EncodeToString(sum[:]),
		Chars:      len([]rune(doc.ExtractedText)),
		IngestedAt: doc.UploadedAt,
	}
}

// Record converts the metadata into a stored document record owned by userID.
func (m Metadata) Record(userID, teamID uuid.UUID) *types.DocumentRecord {
	return &types.DocumentRecord{
		UserID:    userID,
		TeamID:    teamID,
		Name:      m.Name,
		FileType:  m.FileType,
		CreatedAt: m.IngestedAt,
	}
}
