package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/types"
)

type ArtifactRepo interface {
  // InsertColumns writes one row from an explicit column map. The writer
  // controls the column set so it can drop optional columns the live schema
  // does not have yet.
  InsertColumns(ctx context.Context, tx *gorm.DB, values map[string]interface{}) error
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Artifact, error)
  GetByOwnerID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Artifact, error)
  SetCollectionID(ctx context.Context, tx *gorm.DB, id uuid.UUID, collectionID uuid.UUID) error
}

type artifactRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ArtifactRepo {
  return &artifactRepo{db: db, log: baseLog.With("repo", "ArtifactRepo")}
}

func (r *artifactRepo) InsertColumns(ctx context.Context, tx *gorm.DB, values map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).
    Table(types.Artifact{}.TableName()).
    Create(values).Error
}

func (r *artifactRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Artifact, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Artifact
  if len(ids) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *artifactRepo) GetByOwnerID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Artifact, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Artifact
  if err := transaction.WithContext(ctx).
    Where("owner_id = ?", ownerID).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *artifactRepo) SetCollectionID(ctx context.Context, tx *gorm.DB, id uuid.UUID, collectionID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).
    Table(types.Artifact{}.TableName()).
    Where("id = ?", id).
    Update("collection_id", collectionID).Error
}
