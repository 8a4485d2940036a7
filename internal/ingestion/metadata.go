package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Metadata describes one parsed upload.
type Metadata struct {
	Source    string     `json:"source,omitempty"`
	Timestamp string     `json:"timestamp"` // RFC3339 format
	Hash      string     `json:"hash"`      // SHA256 hex digest of the cleaned content
	Rows      int        `json:"rows"`
	Accepted  int        `json:"accepted"`
	Skipped   []RowIssue `json:"skipped,omitempty"`
}

// NewMetadata creates metadata for content with the current timestamp.
func NewMetadata(content, source string) *Metadata {
	return &Metadata{
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
	}
}

func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON.
func (m *Metadata) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
