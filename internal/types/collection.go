package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
)

type Collection struct {
  ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
  Slug        string         `gorm:"index;column:slug" json:"slug"`
  Title       string         `gorm:"not null;column:title" json:"title"`
  Description string         `gorm:"column:description" json:"description,omitempty"`
  CoverURL    string         `gorm:"column:cover_url" json:"cover_url,omitempty"`
  IsPublic    bool           `gorm:"not null;default:false;column:is_public" json:"is_public"`
  CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Collection) TableName() string {
  return "collection"
}
