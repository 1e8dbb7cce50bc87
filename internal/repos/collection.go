package repos

import (
  "context"
  "errors"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/types"
)

type CollectionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Collection, error)
  GetByOwnerID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Collection, error)
  // GetVisibleBySlug returns the first collection with the given slug that is
  // either owned by ownerID or public, or nil when none matches.
  GetVisibleBySlug(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, slug string) (*types.Collection, error)
}

type collectionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCollectionRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRepo {
  return &collectionRepo{db: db, log: baseLog.With("repo", "CollectionRepo")}
}

func (r *collectionRepo) Create(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(collections) == 0 {
    return []*types.Collection{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&collections).Error; err != nil {
    return nil, err
  }
  return collections, nil
}

func (r *collectionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Collection, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Collection
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

func (r *collectionRepo) GetByOwnerID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Collection, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Collection
  if err := transaction.WithContext(ctx).
    Where("owner_id = ?", ownerID).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *collectionRepo) GetVisibleBySlug(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, slug string) (*types.Collection, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var result types.Collection
  err := transaction.WithContext(ctx).
    Where("slug = ? AND (owner_id = ? OR is_public = true)", slug, ownerID).
    Order("created_at ASC").
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}
