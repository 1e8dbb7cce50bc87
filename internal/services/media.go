package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "mime/multipart"
  "net/http"
  "os"
  "path/filepath"
  "strings"
  "time"

  "github.com/google/uuid"

  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/types"
)

// MediaService fronts the object host. Callers always get back a single public
// URL string; any provider-specific response shape is normalized right at this
// boundary and never leaks into the pipeline.
type MediaService interface {
  Upload(ctx context.Context, kind types.MediaKind, name string, data []byte) (string, error)
}

const (
  mediaModeGCS       = "gcs"
  mediaModeImageHost = "imagehost"
)

type mediaService struct {
  log    *logger.Logger
  mode   string
  bucket BucketService

  hostURL    string
  hostToken  string
  httpClient *http.Client
  maxRetries int
}

func NewMediaService(log *logger.Logger, bucket BucketService) (MediaService, error) {
  serviceLog := log.With("service", "MediaService")
  mode := strings.TrimSpace(strings.ToLower(os.Getenv("MEDIA_STORAGE_MODE")))
  if mode == "" {
    mode = mediaModeGCS
  }
  ms := &mediaService{
    log:        serviceLog,
    mode:       mode,
    bucket:     bucket,
    httpClient: &http.Client{Timeout: 30 * time.Second},
    maxRetries: 2,
  }
  switch mode {
  case mediaModeGCS:
    if bucket == nil {
      return nil, fmt.Errorf("media storage mode %q requires a bucket service", mode)
    }
  case mediaModeImageHost:
    ms.hostURL = strings.TrimSpace(os.Getenv("IMAGE_HOST_UPLOAD_URL"))
    if ms.hostURL == "" {
      return nil, fmt.Errorf("missing env var IMAGE_HOST_UPLOAD_URL")
    }
    ms.hostToken = strings.TrimSpace(os.Getenv("IMAGE_HOST_TOKEN"))
  default:
    return nil, fmt.Errorf("unknown MEDIA_STORAGE_MODE %q", mode)
  }
  return ms, nil
}

func (ms *mediaService) Upload(ctx context.Context, kind types.MediaKind, name string, data []byte) (string, error) {
  if len(data) == 0 {
    return "", fmt.Errorf("empty file %q", name)
  }
  if ms.mode == mediaModeImageHost {
    return ms.uploadToHost(ctx, name, data)
  }
  key := objectKey(kind, name)
  if err := ms.bucket.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
    return "", err
  }
  return ms.bucket.GetPublicURL(key), nil
}

func objectKey(kind types.MediaKind, name string) string {
  base := filepath.Base(name)
  base = strings.Map(func(r rune) rune {
    switch {
    case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
      return r
    default:
      return '-'
    }
  }, base)
  if base == "" || base == "." {
    base = "file"
  }
  return fmt.Sprintf("artifacts/%s/%s/%s", string(kind), uuid.NewString(), base)
}

func (ms *mediaService) uploadToHost(ctx context.Context, name string, data []byte) (string, error) {
  var lastErr error
  backoff := time.Second
  for attempt := 0; attempt <= ms.maxRetries; attempt++ {
    if ctx.Err() != nil {
      return "", ctx.Err()
    }
    url, retryable, err := ms.postToHost(ctx, name, data)
    if err == nil {
      return url, nil
    }
    lastErr = err
    if !retryable || attempt == ms.maxRetries {
      break
    }
    ms.log.Warn("Image host upload retrying",
      "file", name,
      "attempt", attempt+1,
      "max_retries", ms.maxRetries,
      "error", err.Error(),
    )
    time.Sleep(backoff)
    backoff *= 2
  }
  return "", lastErr
}

func (ms *mediaService) postToHost(ctx context.Context, name string, data []byte) (string, bool, error) {
  var body bytes.Buffer
  mw := multipart.NewWriter(&body)
  part, err := mw.CreateFormFile("file", filepath.Base(name))
  if err != nil {
    return "", false, err
  }
  if _, err := part.Write(data); err != nil {
    return "", false, err
  }
  if err := mw.Close(); err != nil {
    return "", false, err
  }

  req, err := http.NewRequestWithContext(ctx, http.MethodPost, ms.hostURL, &body)
  if err != nil {
    return "", false, err
  }
  req.Header.Set("Content-Type", mw.FormDataContentType())
  if ms.hostToken != "" {
    req.Header.Set("Authorization", "Bearer "+ms.hostToken)
  }

  resp, err := ms.httpClient.Do(req)
  if err != nil {
    return "", true, err
  }
  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return "", true, readErr
  }
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
    return "", retryable, fmt.Errorf("image host http %d: %s", resp.StatusCode, string(raw))
  }
  url, err := normalizeUploadResult(raw)
  if err != nil {
    return "", false, err
  }
  return url, false, nil
}

// normalizeUploadResult accepts the result shapes seen across hosts: a bare
// JSON string, {secure_url}, {url}, or any of those nested under "data".
func normalizeUploadResult(raw []byte) (string, error) {
  var s string
  if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
    return strings.TrimSpace(s), nil
  }
  var obj struct {
    SecureURL string          `json:"secure_url"`
    URL       string          `json:"url"`
    Data      json.RawMessage `json:"data"`
  }
  if err := json.Unmarshal(raw, &obj); err != nil {
    return "", fmt.Errorf("unparseable upload result: %w", err)
  }
  if obj.SecureURL != "" {
    return obj.SecureURL, nil
  }
  if obj.URL != "" {
    return obj.URL, nil
  }
  if len(obj.Data) > 0 && string(obj.Data) != "null" {
    return normalizeUploadResult(obj.Data)
  }
  return "", fmt.Errorf("upload result had no recognizable URL field")
}
