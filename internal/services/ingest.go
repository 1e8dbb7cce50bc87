package services

import (
  "context"
  "fmt"
  "strings"

  "github.com/google/uuid"

  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/types"
  "github.com/yungbote/heirlooms-backend/internal/utils"
)

type IngestFile struct {
  Name     string
  MimeType string
  Data     []byte
}

type IngestInput struct {
  OwnerID       uuid.UUID
  Notes         string
  CollectionRef string
  Images        []IngestFile
  Audio         *IngestFile
}

type IngestResult struct {
  ID           uuid.UUID
  Slug         string
  CollectionID *uuid.UUID
  Warning      string
}

// IngestService runs one submission through the pipeline: resolve collection,
// upload media, transcribe, structure, slug, persist, reconcile. Every step
// between auth and the final write degrades instead of failing; only an
// unrecoverable write surfaces an error.
type IngestService interface {
  Ingest(ctx context.Context, input IngestInput) (*IngestResult, error)
}

type ingestService struct {
  log         *logger.Logger
  collections CollectionService
  media       MediaService
  speech      SpeechService
  structurer  StructurerService
  artifacts   ArtifactService
}

// NewIngestService tolerates nil media and speech services; the corresponding
// steps then degrade the same way a failed provider call would.
func NewIngestService(
  log *logger.Logger,
  collections CollectionService,
  media MediaService,
  speech SpeechService,
  structurer StructurerService,
  artifacts ArtifactService,
) IngestService {
  return &ingestService{
    log:         log.With("service", "IngestService"),
    collections: collections,
    media:       media,
    speech:      speech,
    structurer:  structurer,
    artifacts:   artifacts,
  }
}

func (is *ingestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
  var warnings []string

  // Collection reference is optional; uncategorized is a valid terminal state.
  var collectionID *uuid.UUID
  if ref := strings.TrimSpace(input.CollectionRef); ref != "" {
    id, found, err := is.collections.ResolveReference(ctx, input.OwnerID, ref)
    switch {
    case err != nil:
      is.log.Warn("Collection resolution failed", "ref", ref, "error", err)
      warnings = append(warnings, "collection lookup failed; artifact saved uncategorized")
    case !found:
      warnings = append(warnings, fmt.Sprintf("collection %q not found; artifact saved uncategorized", ref))
    default:
      collectionID = &id
    }
  }

  imageURLs := make([]string, 0, len(input.Images))
  for _, img := range input.Images {
    url, err := is.uploadMedia(ctx, types.MediaKindImage, img)
    if err != nil {
      is.log.Warn("Image upload failed, skipping file", "file", img.Name, "error", err)
      warnings = append(warnings, fmt.Sprintf("image %q could not be uploaded", img.Name))
      continue
    }
    imageURLs = append(imageURLs, url)
  }

  var audioURL string
  var transcript string
  if input.Audio != nil {
    url, err := is.uploadMedia(ctx, types.MediaKindAudio, *input.Audio)
    if err != nil {
      is.log.Warn("Audio upload failed", "file", input.Audio.Name, "error", err)
      warnings = append(warnings, "voice note could not be uploaded")
    } else {
      audioURL = url
      transcript = is.transcribe(ctx, *input.Audio, &warnings)
    }
  }

  content := is.structurer.Structure(ctx, input.Notes, transcript, imageURLs)

  slug := utils.Slugify(content.Title)

  media := content.Media
  if audioURL != "" {
    media = append(media, types.MediaItem{Type: types.MediaKindAudio, Src: audioURL})
  }

  writeResult, err := is.artifacts.Write(ctx, ArtifactWriteInput{
    OwnerID:      input.OwnerID,
    CollectionID: collectionID,
    Slug:         slug,
    Title:        content.Title,
    Summary:      content.Summary,
    Payload: types.ArtifactPayload{
      Title:      content.Title,
      Summary:    content.Summary,
      Media:      media,
      Transcript: transcript,
      Privacy:    "private",
    },
  })
  if err != nil {
    return nil, err
  }
  if writeResult.Warning != "" {
    warnings = append(warnings, writeResult.Warning)
  }

  return &IngestResult{
    ID:           writeResult.ID,
    Slug:         writeResult.Slug,
    CollectionID: writeResult.CollectionID,
    Warning:      strings.Join(warnings, "; "),
  }, nil
}

func (is *ingestService) uploadMedia(ctx context.Context, kind types.MediaKind, file IngestFile) (string, error) {
  if is.media == nil {
    return "", fmt.Errorf("media storage unavailable")
  }
  return is.media.Upload(ctx, kind, file.Name, file.Data)
}

func (is *ingestService) transcribe(ctx context.Context, audio IngestFile, warnings *[]string) string {
  if is.speech == nil {
    *warnings = append(*warnings, "transcription unavailable")
    return ""
  }
  text, err := is.speech.TranscribeAudioBytes(ctx, audio.Data, audio.MimeType)
  if err != nil {
    is.log.Warn("Transcription failed", "file", audio.Name, "error", err)
    *warnings = append(*warnings, "voice note could not be transcribed")
    return ""
  }
  return text
}
