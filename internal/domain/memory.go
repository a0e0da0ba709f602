package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Memory is one content item handed to the clustering pipeline. The embedding
// is kept raw here: upstream sources store it as a JSON float array, a
// bracketed comma-separated string, or nothing at all. Parsing and validation
// happen inside the pipeline so a malformed vector drops the item instead of
// failing the run.
type Memory struct {
	ID        string
	Content   string
	Source    string
	Category  string
	CreatedAt time.Time
	Embedding []byte
}

// MemoryRecord is the persisted shape of a memory row.
type MemoryRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;index" json:"tenant_id"`
	Content   string         `gorm:"type:text" json:"content"`
	Source    string         `json:"source"`
	Category  string         `json:"category"`
	Metadata  datatypes.JSON `json:"metadata"`
	Embedding datatypes.JSON `gorm:"column:embedding" json:"embedding"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (MemoryRecord) TableName() string { return "memories" }

// ToMemory converts a stored row into the pipeline input shape.
func (r *MemoryRecord) ToMemory() Memory {
	return Memory{
		ID:        r.ID.String(),
		Content:   r.Content,
		Source:    r.Source,
		Category:  r.Category,
		CreatedAt: r.CreatedAt,
		Embedding: []byte(r.Embedding),
	}
}
