package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "regexp"

  "github.com/google/uuid"
  "github.com/jackc/pgx/v5/pgconn"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/repos"
  "github.com/yungbote/heirlooms-backend/internal/types"
)

const maxInsertAttempts = 3

type ArtifactWriteInput struct {
  OwnerID      uuid.UUID
  CollectionID *uuid.UUID
  Slug         string
  Title        string
  Summary      string
  Payload      types.ArtifactPayload
}

type ArtifactWriteResult struct {
  ID           uuid.UUID
  Slug         string
  CollectionID *uuid.UUID
  Warning      string
}

// ArtifactService persists assembled artifacts. Deployments migrate at
// different times, so the insert adapts to the live schema: when Postgres
// reports an undefined column the writer strips that optional column and
// retries, leaning on the jsonb payload mirror for the dropped value.
type ArtifactService interface {
  Write(ctx context.Context, input ArtifactWriteInput) (*ArtifactWriteResult, error)
  ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*types.Artifact, error)
}

type artifactService struct {
  db           *gorm.DB
  log          *logger.Logger
  artifactRepo repos.ArtifactRepo
}

func NewArtifactService(db *gorm.DB, log *logger.Logger, artifactRepo repos.ArtifactRepo) ArtifactService {
  return &artifactService{
    db:           db,
    log:          log.With("service", "ArtifactService"),
    artifactRepo: artifactRepo,
  }
}

// requiredColumns can never be stripped; exhausting the droppable set
// surfaces the underlying insert error.
var requiredColumns = map[string]bool{
  "id":       true,
  "owner_id": true,
  "slug":     true,
  "title":    true,
  "summary":  true,
}

func (as *artifactService) Write(ctx context.Context, input ArtifactWriteInput) (*ArtifactWriteResult, error) {
  id := uuid.New()

  if input.CollectionID != nil {
    input.Payload.CollectionID = input.CollectionID.String()
  }
  rawPayload, err := json.Marshal(input.Payload)
  if err != nil {
    return nil, fmt.Errorf("Failed to encode artifact payload: %w", err)
  }

  values := map[string]interface{}{
    "id":       id,
    "owner_id": input.OwnerID,
    "slug":     input.Slug,
    "title":    input.Title,
    "summary":  input.Summary,
    "payload":  datatypes.JSON(rawPayload),
  }
  if input.CollectionID != nil {
    values["collection_id"] = *input.CollectionID
  }

  if err := as.insertAdaptive(ctx, values); err != nil {
    return nil, err
  }

  result := &ArtifactWriteResult{
    ID:           id,
    Slug:         input.Slug,
    CollectionID: input.CollectionID,
  }
  if input.CollectionID != nil {
    result.Warning = as.reconcileCollection(ctx, id, *input.CollectionID)
  }
  return result, nil
}

func (as *artifactService) insertAdaptive(ctx context.Context, values map[string]interface{}) error {
  var lastErr error
  for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
    err := as.artifactRepo.InsertColumns(ctx, nil, values)
    if err == nil {
      return nil
    }
    lastErr = err

    col, ok := undefinedColumnName(err)
    if !ok || requiredColumns[col] {
      return fmt.Errorf("Failed to insert artifact: %w", err)
    }
    if _, present := values[col]; !present {
      return fmt.Errorf("Failed to insert artifact: %w", err)
    }
    as.log.Warn("Live schema is missing a column, retrying insert without it",
      "column", col,
      "attempt", attempt,
    )
    delete(values, col)
  }
  return fmt.Errorf("Failed to insert artifact after %d attempts: %w", maxInsertAttempts, lastErr)
}

// reconcileCollection issues one best-effort patch when the persisted row lost
// its collection_id (missing column at insert time, or a policy dropped the
// field). The payload mirror stays authoritative for display, so failure here
// is a warning, never an error.
func (as *artifactService) reconcileCollection(ctx context.Context, id uuid.UUID, collectionID uuid.UUID) string {
  rows, err := as.artifactRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
  if err != nil || len(rows) == 0 {
    as.log.Warn("Could not read back artifact for collection reconcile", "artifact_id", id, "error", err)
    return "collection association could not be verified"
  }
  if rows[0].CollectionID != nil && *rows[0].CollectionID == collectionID {
    return ""
  }
  if err := as.artifactRepo.SetCollectionID(ctx, nil, id, collectionID); err != nil {
    as.log.Warn("Collection reconcile update failed", "artifact_id", id, "error", err)
    return "collection association was not persisted to the collection_id column"
  }
  return ""
}

func (as *artifactService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*types.Artifact, error) {
  return as.artifactRepo.GetByOwnerID(ctx, nil, ownerID)
}

var undefinedColumnRe = regexp.MustCompile(`column "([^"]+)"[^"]*does not exist`)

// undefinedColumnName classifies schema-drift errors (Postgres SQLSTATE
// 42703) and names the offending column.
func undefinedColumnName(err error) (string, bool) {
  if err == nil {
    return "", false
  }
  var pgErr *pgconn.PgError
  if errors.As(err, &pgErr) {
    if pgErr.Code != "42703" {
      return "", false
    }
    if m := undefinedColumnRe.FindStringSubmatch(pgErr.Message); m != nil {
      return m[1], true
    }
    if pgErr.ColumnName != "" {
      return pgErr.ColumnName, true
    }
    return "", false
  }
  if m := undefinedColumnRe.FindStringSubmatch(err.Error()); m != nil {
    return m[1], true
  }
  return "", false
}
