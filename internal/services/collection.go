package services

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/google/uuid"
  goredis "github.com/redis/go-redis/v9"
  "gorm.io/gorm"

  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/repos"
  "github.com/yungbote/heirlooms-backend/internal/types"
  "github.com/yungbote/heirlooms-backend/internal/utils"
)

type CreateCollectionInput struct {
  Title       string
  Description string
  IsPublic    bool
  CoverURL    string
}

type CollectionService interface {
  Create(ctx context.Context, ownerID uuid.UUID, input CreateCollectionInput) (*types.Collection, error)
  ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*types.Collection, error)
  GetByReference(ctx context.Context, ownerID uuid.UUID, ref string) (*types.Collection, error)
  // ResolveReference normalizes a client-supplied collection reference.
  // A canonical UUID is accepted on format alone, with no store lookup; any
  // other string is treated as a slug and resolved against collections the
  // owner can see. found=false is not an error: the caller decides policy.
  ResolveReference(ctx context.Context, ownerID uuid.UUID, ref string) (uuid.UUID, bool, error)
}

type collectionService struct {
  db             *gorm.DB
  log            *logger.Logger
  collectionRepo repos.CollectionRepo
  rdb            *goredis.Client
  cacheTTL       time.Duration
}

func NewCollectionService(db *gorm.DB, log *logger.Logger, collectionRepo repos.CollectionRepo) CollectionService {
  serviceLog := log.With("service", "CollectionService")

  var rdb *goredis.Client
  if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
    client := goredis.NewClient(&goredis.Options{
      Addr:        addr,
      DialTimeout: 5 * time.Second,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    if err := client.Ping(ctx).Err(); err != nil {
      serviceLog.Warn("Redis unreachable, slug cache disabled", "error", err)
      _ = client.Close()
    } else {
      rdb = client
    }
    cancel()
  }

  return &collectionService{
    db:             db,
    log:            serviceLog,
    collectionRepo: collectionRepo,
    rdb:            rdb,
    cacheTTL:       5 * time.Minute,
  }
}

func (cs *collectionService) Create(ctx context.Context, ownerID uuid.UUID, input CreateCollectionInput) (*types.Collection, error) {
  title := strings.TrimSpace(input.Title)
  if title == "" {
    return nil, fmt.Errorf("title is required")
  }
  collection := &types.Collection{
    ID:          uuid.New(),
    OwnerID:     ownerID,
    Slug:        utils.Slugify(title),
    Title:       title,
    Description: strings.TrimSpace(input.Description),
    CoverURL:    input.CoverURL,
    IsPublic:    input.IsPublic,
  }
  if _, err := cs.collectionRepo.Create(ctx, nil, []*types.Collection{collection}); err != nil {
    return nil, fmt.Errorf("Failed to create collection: %w", err)
  }
  return collection, nil
}

func (cs *collectionService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*types.Collection, error) {
  return cs.collectionRepo.GetByOwnerID(ctx, nil, ownerID)
}

func (cs *collectionService) GetByReference(ctx context.Context, ownerID uuid.UUID, ref string) (*types.Collection, error) {
  ref = strings.TrimSpace(ref)
  if id, err := uuid.Parse(ref); err == nil {
    found, err := cs.collectionRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
    if err != nil {
      return nil, err
    }
    if len(found) == 0 {
      return nil, nil
    }
    col := found[0]
    if col.OwnerID != ownerID && !col.IsPublic {
      return nil, nil
    }
    return col, nil
  }
  return cs.collectionRepo.GetVisibleBySlug(ctx, nil, ownerID, ref)
}

func (cs *collectionService) ResolveReference(ctx context.Context, ownerID uuid.UUID, ref string) (uuid.UUID, bool, error) {
  ref = strings.TrimSpace(ref)
  if ref == "" {
    return uuid.Nil, false, nil
  }
  if id, err := uuid.Parse(ref); err == nil {
    // canonical format; accepted without existence verification
    return id, true, nil
  }

  if cached, ok := cs.cacheGet(ctx, ownerID, ref); ok {
    return cached, true, nil
  }

  col, err := cs.collectionRepo.GetVisibleBySlug(ctx, nil, ownerID, ref)
  if err != nil {
    return uuid.Nil, false, fmt.Errorf("Failed to resolve collection slug %q: %w", ref, err)
  }
  if col == nil {
    return uuid.Nil, false, nil
  }
  cs.cacheSet(ctx, ownerID, ref, col.ID)
  return col.ID, true, nil
}

func slugCacheKey(ownerID uuid.UUID, slug string) string {
  return fmt.Sprintf("heirlooms:colslug:%s:%s", ownerID, slug)
}

func (cs *collectionService) cacheGet(ctx context.Context, ownerID uuid.UUID, slug string) (uuid.UUID, bool) {
  if cs.rdb == nil {
    return uuid.Nil, false
  }
  val, err := cs.rdb.Get(ctx, slugCacheKey(ownerID, slug)).Result()
  if err != nil {
    return uuid.Nil, false
  }
  id, err := uuid.Parse(val)
  if err != nil {
    return uuid.Nil, false
  }
  return id, true
}

func (cs *collectionService) cacheSet(ctx context.Context, ownerID uuid.UUID, slug string, id uuid.UUID) {
  if cs.rdb == nil {
    return
  }
  if err := cs.rdb.Set(ctx, slugCacheKey(ownerID, slug), id.String(), cs.cacheTTL).Err(); err != nil {
    cs.log.Debug("Slug cache write failed", "slug", slug, "error", err)
  }
}
