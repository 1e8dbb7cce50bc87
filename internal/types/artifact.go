package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

type MediaKind string

const (
  MediaKindImage MediaKind = "image"
  MediaKindAudio MediaKind = "audio"
)

// MediaItem tags one piece of media embedded in an artifact. Items have no
// identity of their own; they live inside the artifact payload.
type MediaItem struct {
  Type MediaKind `json:"type"`
  Src  string    `json:"src"`
  Alt  string    `json:"alt,omitempty"`
}

// ArtifactPayload is the jsonb mirror of the full record. It keeps fields the
// normalized columns may lack on older deployments, so the payload value for
// collection_id stays authoritative for display when the column is missing.
type ArtifactPayload struct {
  Title        string      `json:"title"`
  Summary      string      `json:"summary"`
  Media        []MediaItem `json:"media"`
  Transcript   string      `json:"transcript,omitempty"`
  CollectionID string      `json:"collection_id,omitempty"`
  Tags         []string    `json:"tags,omitempty"`
  Theme        string      `json:"theme,omitempty"`
  Privacy      string      `json:"privacy,omitempty"`
}

type Artifact struct {
  ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  OwnerID      uuid.UUID      `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
  CollectionID *uuid.UUID     `gorm:"type:uuid;index;column:collection_id" json:"collection_id,omitempty"`
  Slug         string         `gorm:"index;not null;column:slug" json:"slug"`
  Title        string         `gorm:"not null;column:title" json:"title"`
  Summary      string         `gorm:"not null;column:summary" json:"summary"`
  Payload      datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
  CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Artifact) TableName() string {
  return "artifact"
}
