package handlers

import (
  "errors"
  "io"
  "mime/multipart"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/requestdata"
  "github.com/yungbote/heirlooms-backend/internal/services"
)

type IngestHandler struct {
  log             *logger.Logger
  ingestService   services.IngestService
  artifactService services.ArtifactService
}

func NewIngestHandler(log *logger.Logger, isvc services.IngestService, asvc services.ArtifactService) *IngestHandler {
  return &IngestHandler{
    log:             log.With("handler", "IngestHandler"),
    ingestService:   isvc,
    artifactService: asvc,
  }
}

// POST /ingest
// Multipart fields: text, images (repeated), audio, and a collection
// reference under collectionId / collection_id / collection.
func (h *IngestHandler) Ingest(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("Unauthorized"))
    return
  }

  form, err := c.MultipartForm()
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }

  input := services.IngestInput{
    OwnerID:       rd.UserID,
    Notes:         c.PostForm("text"),
    CollectionRef: collectionRef(c),
  }

  for _, fh := range form.File["images"] {
    file, err := readFormFile(fh)
    if err != nil {
      h.log.Warn("Could not read image part, skipping", "file", fh.Filename, "error", err)
      continue
    }
    input.Images = append(input.Images, file)
  }

  if audioHeaders := form.File["audio"]; len(audioHeaders) > 0 {
    file, err := readFormFile(audioHeaders[0])
    if err != nil {
      h.log.Warn("Could not read audio part, skipping", "file", audioHeaders[0].Filename, "error", err)
    } else {
      input.Audio = &file
    }
  }

  result, err := h.ingestService.Ingest(c.Request.Context(), input)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "ingest_failed", err)
    return
  }

  resp := gin.H{
    "id":            result.ID,
    "slug":          result.Slug,
    "collection_id": result.CollectionID,
  }
  if result.Warning != "" {
    resp["warning"] = result.Warning
  }
  RespondOK(c, resp)
}

// GET /artifacts
func (h *IngestHandler) ListArtifacts(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("Unauthorized"))
    return
  }
  artifacts, err := h.artifactService.ListOwned(c.Request.Context(), rd.UserID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "artifact_list_failed", err)
    return
  }
  RespondOK(c, gin.H{"artifacts": artifacts})
}

// clients have shipped the collection reference under several names
func collectionRef(c *gin.Context) string {
  for _, key := range []string{"collectionId", "collection_id", "collection"} {
    if v := c.PostForm(key); v != "" {
      return v
    }
  }
  return ""
}

func readFormFile(fh *multipart.FileHeader) (services.IngestFile, error) {
  f, err := fh.Open()
  if err != nil {
    return services.IngestFile{}, err
  }
  defer f.Close()
  data, err := io.ReadAll(f)
  if err != nil {
    return services.IngestFile{}, err
  }
  return services.IngestFile{
    Name:     fh.Filename,
    MimeType: fh.Header.Get("Content-Type"),
    Data:     data,
  }, nil
}
