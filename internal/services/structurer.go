package services

import (
  "context"
  "fmt"
  "net/url"
  "strings"

  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/types"
)

const (
  fallbackTitle            = "Untitled Artifact"
  summaryFromNotes         = "Generated from notes."
  summaryFromNotesAndVoice = "Generated from notes and voice note."

  titleMaxLen         = 120
  fallbackTitleMaxLen = 60
)

type StructuredContent struct {
  Title   string
  Summary string
  Media   []types.MediaItem
}

// StructurerService turns raw notes, an optional transcript, and the uploaded
// image URLs into a titled, summarized record. Structure is total: it always
// returns usable content, degrading to a deterministic local fallback when the
// generation service is missing, fails, or returns an invalid shape.
type StructurerService interface {
  Structure(ctx context.Context, notes, transcript string, imageURLs []string) StructuredContent
}

type structurerService struct {
  log   *logger.Logger
  genai GenAIClient
}

// NewStructurerService accepts a nil genai client; the service then always
// takes the fallback path.
func NewStructurerService(log *logger.Logger, genai GenAIClient) StructurerService {
  return &structurerService{
    log:   log.With("service", "StructurerService"),
    genai: genai,
  }
}

func (s *structurerService) Structure(ctx context.Context, notes, transcript string, imageURLs []string) StructuredContent {
  if s.genai != nil {
    out, err := s.generate(ctx, notes, transcript, imageURLs)
    if err == nil {
      return ensureImages(out, imageURLs)
    }
    s.log.Warn("Content structuring failed, using fallback", "error", err)
  }
  return fallbackContent(notes, transcript, imageURLs)
}

func (s *structurerService) generate(ctx context.Context, notes, transcript string, imageURLs []string) (StructuredContent, error) {
  system := "You catalog family heirlooms. Given the owner's notes, an optional voice transcript, and image URLs, " +
    "produce strict JSON with a short evocative title, a warm 2-4 sentence summary, and a media gallery. " +
    "Only reference the image URLs you were given."

  var user strings.Builder
  user.WriteString("Notes:\n")
  user.WriteString(notes)
  if strings.TrimSpace(transcript) != "" {
    user.WriteString("\n\nVoice transcript:\n")
    user.WriteString(transcript)
  }
  if len(imageURLs) > 0 {
    user.WriteString("\n\nImage URLs:\n")
    for _, u := range imageURLs {
      user.WriteString(u)
      user.WriteString("\n")
    }
  }

  schema := map[string]any{
    "type":                 "object",
    "additionalProperties": false,
    "properties": map[string]any{
      "title":   map[string]any{"type": "string"},
      "summary": map[string]any{"type": "string"},
      "media": map[string]any{
        "type": "array",
        "items": map[string]any{
          "type":                 "object",
          "additionalProperties": false,
          "properties": map[string]any{
            "type": map[string]any{"type": "string", "enum": []string{"image"}},
            "src":  map[string]any{"type": "string"},
            "alt":  map[string]any{"type": "string"},
          },
          "required": []string{"type", "src"},
        },
      },
    },
    "required": []string{"title", "summary", "media"},
  }

  obj, err := s.genai.GenerateJSON(ctx, system, user.String(), "artifact_content", schema)
  if err != nil {
    return StructuredContent{}, err
  }
  return validateStructured(obj)
}

func validateStructured(obj map[string]any) (StructuredContent, error) {
  title, _ := obj["title"].(string)
  title = strings.TrimSpace(title)
  if title == "" {
    return StructuredContent{}, fmt.Errorf("structured output missing title")
  }
  if len([]rune(title)) > titleMaxLen {
    return StructuredContent{}, fmt.Errorf("structured output title too long (%d chars)", len([]rune(title)))
  }
  summary, _ := obj["summary"].(string)
  summary = strings.TrimSpace(summary)
  if summary == "" {
    return StructuredContent{}, fmt.Errorf("structured output missing summary")
  }

  rawMedia, ok := obj["media"].([]any)
  if !ok {
    return StructuredContent{}, fmt.Errorf("structured output media is not an array")
  }
  media := make([]types.MediaItem, 0, len(rawMedia))
  for i, entry := range rawMedia {
    m, ok := entry.(map[string]any)
    if !ok {
      return StructuredContent{}, fmt.Errorf("structured output media[%d] is not an object", i)
    }
    kind, _ := m["type"].(string)
    if kind != string(types.MediaKindImage) {
      return StructuredContent{}, fmt.Errorf("structured output media[%d] has type %q", i, kind)
    }
    src, _ := m["src"].(string)
    if !isFetchableURL(src) {
      return StructuredContent{}, fmt.Errorf("structured output media[%d] has invalid src %q", i, src)
    }
    alt, _ := m["alt"].(string)
    media = append(media, types.MediaItem{Type: types.MediaKindImage, Src: src, Alt: alt})
  }

  return StructuredContent{Title: title, Summary: summary, Media: media}, nil
}

func isFetchableURL(s string) bool {
  u, err := url.Parse(s)
  if err != nil {
    return false
  }
  return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ensureImages appends any uploaded image URL the model dropped, in upload
// order, so no successfully uploaded image disappears from the gallery.
func ensureImages(out StructuredContent, imageURLs []string) StructuredContent {
  seen := make(map[string]bool, len(out.Media))
  for _, m := range out.Media {
    seen[m.Src] = true
  }
  for _, u := range imageURLs {
    if !seen[u] {
      out.Media = append(out.Media, types.MediaItem{Type: types.MediaKindImage, Src: u})
      seen[u] = true
    }
  }
  return out
}

func fallbackContent(notes, transcript string, imageURLs []string) StructuredContent {
  notes = strings.TrimSpace(notes)
  transcript = strings.TrimSpace(transcript)

  title := firstRunes(notes, fallbackTitleMaxLen)
  if title == "" {
    title = firstRunes(transcript, fallbackTitleMaxLen)
  }
  if title == "" {
    title = fallbackTitle
  }

  summary := summaryFromNotes
  if transcript != "" {
    summary = summaryFromNotesAndVoice
  }

  media := make([]types.MediaItem, 0, len(imageURLs))
  for _, u := range imageURLs {
    media = append(media, types.MediaItem{Type: types.MediaKindImage, Src: u})
  }

  return StructuredContent{Title: title, Summary: summary, Media: media}
}

func firstRunes(s string, n int) string {
  r := []rune(s)
  if len(r) <= n {
    return s
  }
  return string(r[:n])
}
