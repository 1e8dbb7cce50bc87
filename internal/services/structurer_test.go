package services

import (
  "context"
  "fmt"
  "strings"
  "testing"

  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  return log
}

type fakeGenAI struct {
  obj   map[string]any
  err   error
  calls int
}

func (f *fakeGenAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
  f.calls++
  if f.err != nil {
    return nil, f.err
  }
  return f.obj, nil
}

func TestStructureFallbackFromNotes(t *testing.T) {
  s := NewStructurerService(newTestLogger(t), nil)

  got := s.Structure(context.Background(), "Grandpa's watch", "", []string{"https://cdn.example.com/watch.jpg"})

  if got.Title != "Grandpa's watch" {
    t.Fatalf("title: want=%q got=%q", "Grandpa's watch", got.Title)
  }
  if got.Summary != "Generated from notes." {
    t.Fatalf("summary: want=%q got=%q", "Generated from notes.", got.Summary)
  }
  if len(got.Media) != 1 || got.Media[0].Type != types.MediaKindImage || got.Media[0].Src != "https://cdn.example.com/watch.jpg" {
    t.Fatalf("media: got %+v", got.Media)
  }
}

func TestStructureFallbackFromTranscript(t *testing.T) {
  s := NewStructurerService(newTestLogger(t), nil)

  got := s.Structure(context.Background(), "  ", "This ring belonged to my mother", nil)

  if got.Title != "This ring belonged to my mother" {
    t.Fatalf("title: got %q", got.Title)
  }
  if got.Summary != "Generated from notes and voice note." {
    t.Fatalf("summary: got %q", got.Summary)
  }
  if len(got.Media) != 0 {
    t.Fatalf("media: want empty, got %+v", got.Media)
  }
}

func TestStructureFallbackEmptyInputs(t *testing.T) {
  s := NewStructurerService(newTestLogger(t), nil)

  got := s.Structure(context.Background(), "", "", nil)

  if got.Title != "Untitled Artifact" {
    t.Fatalf("title: want=%q got=%q", "Untitled Artifact", got.Title)
  }
  if got.Summary == "" {
    t.Fatalf("summary must never be empty")
  }
}

func TestStructureFallbackTruncatesLongNotes(t *testing.T) {
  s := NewStructurerService(newTestLogger(t), nil)
  notes := strings.Repeat("x", 200)

  got := s.Structure(context.Background(), notes, "", nil)

  if len([]rune(got.Title)) != 60 {
    t.Fatalf("title length: want=60 got=%d", len([]rune(got.Title)))
  }
}

func TestStructureGenerationFailureFallsBack(t *testing.T) {
  fake := &fakeGenAI{err: fmt.Errorf("boom")}
  s := NewStructurerService(newTestLogger(t), fake)

  got := s.Structure(context.Background(), "Grandpa's watch", "", []string{"https://cdn.example.com/watch.jpg"})

  if fake.calls != 1 {
    t.Fatalf("generation calls: want=1 got=%d", fake.calls)
  }
  if got.Title != "Grandpa's watch" || got.Summary != "Generated from notes." {
    t.Fatalf("fallback not used: %+v", got)
  }
}

func TestStructureInvalidShapeFallsBack(t *testing.T) {
  cases := []struct {
    name string
    obj  map[string]any
  }{
    {"missing title", map[string]any{"summary": "s", "media": []any{}}},
    {"empty title", map[string]any{"title": "  ", "summary": "s", "media": []any{}}},
    {"title too long", map[string]any{"title": strings.Repeat("t", 121), "summary": "s", "media": []any{}}},
    {"missing summary", map[string]any{"title": "t", "media": []any{}}},
    {"media not array", map[string]any{"title": "t", "summary": "s", "media": "nope"}},
    {"media bad type", map[string]any{"title": "t", "summary": "s", "media": []any{map[string]any{"type": "video", "src": "https://x/y"}}}},
    {"media bad src", map[string]any{"title": "t", "summary": "s", "media": []any{map[string]any{"type": "image", "src": "not a url"}}}},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      s := NewStructurerService(newTestLogger(t), &fakeGenAI{obj: tc.obj})
      got := s.Structure(context.Background(), "notes here", "", nil)
      if got.Summary != "Generated from notes." {
        t.Fatalf("expected fallback summary, got %+v", got)
      }
    })
  }
}

func TestStructureAppendsDroppedImages(t *testing.T) {
  kept := "https://cdn.example.com/a.jpg"
  dropped := "https://cdn.example.com/b.jpg"
  fake := &fakeGenAI{obj: map[string]any{
    "title":   "The Watch",
    "summary": "A pocket watch.",
    "media": []any{
      map[string]any{"type": "image", "src": kept, "alt": "the watch"},
    },
  }}
  s := NewStructurerService(newTestLogger(t), fake)

  got := s.Structure(context.Background(), "notes", "", []string{kept, dropped})

  if len(got.Media) != 2 {
    t.Fatalf("media length: want=2 got=%d (%+v)", len(got.Media), got.Media)
  }
  if got.Media[0].Src != kept || got.Media[0].Alt != "the watch" {
    t.Fatalf("generated entry mangled: %+v", got.Media[0])
  }
  if got.Media[1].Src != dropped || got.Media[1].Type != types.MediaKindImage {
    t.Fatalf("dropped image not appended: %+v", got.Media[1])
  }
}

func TestEnsureImagesDoesNotDuplicate(t *testing.T) {
  url := "https://cdn.example.com/a.jpg"
  out := ensureImages(StructuredContent{
    Title:   "t",
    Summary: "s",
    Media:   []types.MediaItem{{Type: types.MediaKindImage, Src: url}},
  }, []string{url})
  if len(out.Media) != 1 {
    t.Fatalf("media length: want=1 got=%d", len(out.Media))
  }
}
