package handlers

import (
  "errors"
  "io"
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/requestdata"
  "github.com/yungbote/heirlooms-backend/internal/services"
  "github.com/yungbote/heirlooms-backend/internal/types"
)

type CollectionHandler struct {
  log               *logger.Logger
  collectionService services.CollectionService
  mediaService      services.MediaService
}

func NewCollectionHandler(log *logger.Logger, csvc services.CollectionService, msvc services.MediaService) *CollectionHandler {
  return &CollectionHandler{
    log:               log.With("handler", "CollectionHandler"),
    collectionService: csvc,
    mediaService:      msvc,
  }
}

// POST /collections
// Multipart fields: title (required), description, is_public, cover (file).
func (h *CollectionHandler) Create(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("Unauthorized"))
    return
  }

  title := c.PostForm("title")
  if title == "" {
    RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("title is required"))
    return
  }
  isPublic, _ := strconv.ParseBool(c.PostForm("is_public"))

  coverURL := ""
  if fh, err := c.FormFile("cover"); err == nil && fh != nil && h.mediaService != nil {
    f, openErr := fh.Open()
    if openErr == nil {
      data, readErr := io.ReadAll(f)
      _ = f.Close()
      if readErr == nil {
        url, upErr := h.mediaService.Upload(c.Request.Context(), types.MediaKindImage, fh.Filename, data)
        if upErr != nil {
          h.log.Warn("Cover upload failed, creating collection without cover", "error", upErr)
        } else {
          coverURL = url
        }
      }
    }
  }

  collection, err := h.collectionService.Create(c.Request.Context(), rd.UserID, services.CreateCollectionInput{
    Title:       title,
    Description: c.PostForm("description"),
    IsPublic:    isPublic,
    CoverURL:    coverURL,
  })
  if err != nil {
    RespondError(c, http.StatusBadRequest, "collection_create_failed", err)
    return
  }
  RespondOK(c, gin.H{"id": collection.ID, "slug": collection.Slug})
}

// GET /collections
func (h *CollectionHandler) List(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("Unauthorized"))
    return
  }
  collections, err := h.collectionService.ListOwned(c.Request.Context(), rd.UserID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "collection_list_failed", err)
    return
  }
  RespondOK(c, gin.H{"collections": collections})
}

// GET /collections/:ref — ref may be a canonical id or a slug
func (h *CollectionHandler) Get(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("Unauthorized"))
    return
  }
  collection, err := h.collectionService.GetByReference(c.Request.Context(), rd.UserID, c.Param("ref"))
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "collection_get_failed", err)
    return
  }
  if collection == nil {
    RespondError(c, http.StatusNotFound, "collection_not_found", errors.New("collection not found"))
    return
  }
  RespondOK(c, collection)
}
