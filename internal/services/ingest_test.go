package services

import (
  "context"
  "fmt"
  "strings"
  "testing"

  "github.com/google/uuid"

  "github.com/yungbote/heirlooms-backend/internal/types"
)

type fakeCollections struct {
  id    uuid.UUID
  found bool
  err   error
  calls int
}

func (f *fakeCollections) Create(ctx context.Context, ownerID uuid.UUID, input CreateCollectionInput) (*types.Collection, error) {
  return nil, fmt.Errorf("not implemented")
}

func (f *fakeCollections) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*types.Collection, error) {
  return nil, nil
}

func (f *fakeCollections) GetByReference(ctx context.Context, ownerID uuid.UUID, ref string) (*types.Collection, error) {
  return nil, nil
}

func (f *fakeCollections) ResolveReference(ctx context.Context, ownerID uuid.UUID, ref string) (uuid.UUID, bool, error) {
  f.calls++
  return f.id, f.found, f.err
}

type fakeMedia struct {
  failNames map[string]bool
  uploads   []string
}

func (f *fakeMedia) Upload(ctx context.Context, kind types.MediaKind, name string, data []byte) (string, error) {
  if f.failNames[name] {
    return "", fmt.Errorf("upstream rejected %q", name)
  }
  url := fmt.Sprintf("https://cdn.example.com/%s/%s", kind, name)
  f.uploads = append(f.uploads, url)
  return url, nil
}

type fakeSpeech struct {
  transcript string
  err        error
  calls      int
}

func (f *fakeSpeech) TranscribeAudioBytes(ctx context.Context, audio []byte, mimeType string) (string, error) {
  f.calls++
  return f.transcript, f.err
}

func (f *fakeSpeech) Close() error { return nil }

type fakeArtifacts struct {
  lastInput ArtifactWriteInput
  warning   string
  err       error
}

func (f *fakeArtifacts) Write(ctx context.Context, input ArtifactWriteInput) (*ArtifactWriteResult, error) {
  f.lastInput = input
  if f.err != nil {
    return nil, f.err
  }
  return &ArtifactWriteResult{
    ID:           uuid.New(),
    Slug:         input.Slug,
    CollectionID: input.CollectionID,
    Warning:      f.warning,
  }, nil
}

func (f *fakeArtifacts) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*types.Artifact, error) {
  return nil, nil
}

type ingestFixture struct {
  collections *fakeCollections
  media       *fakeMedia
  speech      *fakeSpeech
  artifacts   *fakeArtifacts
  svc         IngestService
}

func newIngestFixture(t *testing.T) *ingestFixture {
  t.Helper()
  log := newTestLogger(t)
  fx := &ingestFixture{
    collections: &fakeCollections{},
    media:       &fakeMedia{},
    speech:      &fakeSpeech{},
    artifacts:   &fakeArtifacts{},
  }
  fx.svc = NewIngestService(
    log,
    fx.collections,
    fx.media,
    fx.speech,
    NewStructurerService(log, nil),
    fx.artifacts,
  )
  return fx
}

func TestIngestSuccess(t *testing.T) {
  fx := newIngestFixture(t)
  collectionID := uuid.New()
  fx.collections.id = collectionID
  fx.collections.found = true
  fx.speech.transcript = "it kept perfect time for sixty years"

  result, err := fx.svc.Ingest(context.Background(), IngestInput{
    OwnerID:       uuid.New(),
    Notes:         "Grandpa's watch",
    CollectionRef: "family-heirlooms",
    Images: []IngestFile{
      {Name: "watch.jpg", MimeType: "image/jpeg", Data: []byte("img")},
    },
    Audio: &IngestFile{Name: "note.wav", MimeType: "audio/wav", Data: []byte("wav")},
  })
  if err != nil {
    t.Fatalf("Ingest: %v", err)
  }
  if result.Warning != "" {
    t.Fatalf("warning: got %q", result.Warning)
  }
  if result.Slug != "grandpa-s-watch" {
    t.Fatalf("slug: want=%q got=%q", "grandpa-s-watch", result.Slug)
  }
  if result.CollectionID == nil || *result.CollectionID != collectionID {
    t.Fatalf("collection id: got %v", result.CollectionID)
  }

  written := fx.artifacts.lastInput
  if written.Title != "Grandpa's watch" {
    t.Fatalf("title: got %q", written.Title)
  }
  if written.Payload.Transcript != fx.speech.transcript {
    t.Fatalf("transcript: got %q", written.Payload.Transcript)
  }
  if written.Payload.Privacy != "private" {
    t.Fatalf("privacy: got %q", written.Payload.Privacy)
  }
  // image entry plus trailing audio entry
  if len(written.Payload.Media) != 2 {
    t.Fatalf("media: got %+v", written.Payload.Media)
  }
  if written.Payload.Media[0].Type != types.MediaKindImage {
    t.Fatalf("media[0]: got %+v", written.Payload.Media[0])
  }
  last := written.Payload.Media[len(written.Payload.Media)-1]
  if last.Type != types.MediaKindAudio || !strings.Contains(last.Src, "note.wav") {
    t.Fatalf("audio media entry: got %+v", last)
  }
}

func TestIngestImageUploadFailureWarnsAndContinues(t *testing.T) {
  fx := newIngestFixture(t)
  fx.media.failNames = map[string]bool{"broken.jpg": true}

  result, err := fx.svc.Ingest(context.Background(), IngestInput{
    OwnerID: uuid.New(),
    Notes:   "Two photos of the quilt",
    Images: []IngestFile{
      {Name: "broken.jpg", Data: []byte("img")},
      {Name: "good.jpg", Data: []byte("img")},
    },
  })
  if err != nil {
    t.Fatalf("Ingest: %v", err)
  }
  if !strings.Contains(result.Warning, `image "broken.jpg" could not be uploaded`) {
    t.Fatalf("warning: got %q", result.Warning)
  }
  media := fx.artifacts.lastInput.Payload.Media
  if len(media) != 1 || !strings.Contains(media[0].Src, "good.jpg") {
    t.Fatalf("media: got %+v", media)
  }
}

func TestIngestUnresolvableCollectionSavesUncategorized(t *testing.T) {
  fx := newIngestFixture(t)
  fx.collections.found = false

  result, err := fx.svc.Ingest(context.Background(), IngestInput{
    OwnerID:       uuid.New(),
    Notes:         "The quilt",
    CollectionRef: "no-such-collection",
  })
  if err != nil {
    t.Fatalf("Ingest: %v", err)
  }
  if result.CollectionID != nil {
    t.Fatalf("collection id: want nil got %v", result.CollectionID)
  }
  if !strings.Contains(result.Warning, `collection "no-such-collection" not found`) {
    t.Fatalf("warning: got %q", result.Warning)
  }
  if fx.artifacts.lastInput.CollectionID != nil {
    t.Fatalf("write must be uncategorized, got %v", fx.artifacts.lastInput.CollectionID)
  }
}

func TestIngestCollectionLookupErrorSavesUncategorized(t *testing.T) {
  fx := newIngestFixture(t)
  fx.collections.err = fmt.Errorf("connection reset")

  result, err := fx.svc.Ingest(context.Background(), IngestInput{
    OwnerID:       uuid.New(),
    Notes:         "The quilt",
    CollectionRef: "family-heirlooms",
  })
  if err != nil {
    t.Fatalf("Ingest: lookup failure must degrade, got %v", err)
  }
  if !strings.Contains(result.Warning, "collection lookup failed") {
    t.Fatalf("warning: got %q", result.Warning)
  }
}

func TestIngestTranscriptionFailureKeepsAudioMedia(t *testing.T) {
  fx := newIngestFixture(t)
  fx.speech.err = fmt.Errorf("speech quota exhausted")

  result, err := fx.svc.Ingest(context.Background(), IngestInput{
    OwnerID: uuid.New(),
    Notes:   "The ring",
    Audio:   &IngestFile{Name: "note.wav", MimeType: "audio/wav", Data: []byte("wav")},
  })
  if err != nil {
    t.Fatalf("Ingest: %v", err)
  }
  if !strings.Contains(result.Warning, "voice note could not be transcribed") {
    t.Fatalf("warning: got %q", result.Warning)
  }
  written := fx.artifacts.lastInput
  if written.Payload.Transcript != "" {
    t.Fatalf("transcript: want empty got %q", written.Payload.Transcript)
  }
  if len(written.Payload.Media) != 1 || written.Payload.Media[0].Type != types.MediaKindAudio {
    t.Fatalf("audio media entry missing: %+v", written.Payload.Media)
  }
  if written.Summary != "Generated from notes." {
    t.Fatalf("summary: got %q", written.Summary)
  }
}

func TestIngestAudioUploadFailureSkipsTranscription(t *testing.T) {
  fx := newIngestFixture(t)
  fx.media.failNames = map[string]bool{"note.wav": true}

  result, err := fx.svc.Ingest(context.Background(), IngestInput{
    OwnerID: uuid.New(),
    Notes:   "The ring",
    Audio:   &IngestFile{Name: "note.wav", Data: []byte("wav")},
  })
  if err != nil {
    t.Fatalf("Ingest: %v", err)
  }
  if !strings.Contains(result.Warning, "voice note could not be uploaded") {
    t.Fatalf("warning: got %q", result.Warning)
  }
  if fx.speech.calls != 0 {
    t.Fatalf("transcription must not run without an uploaded voice note")
  }
  if len(fx.artifacts.lastInput.Payload.Media) != 0 {
    t.Fatalf("media: got %+v", fx.artifacts.lastInput.Payload.Media)
  }
}

func TestIngestNilMediaServiceDegrades(t *testing.T) {
  fx := newIngestFixture(t)
  log := newTestLogger(t)
  svc := NewIngestService(log, fx.collections, nil, fx.speech, NewStructurerService(log, nil), fx.artifacts)

  result, err := svc.Ingest(context.Background(), IngestInput{
    OwnerID: uuid.New(),
    Notes:   "The ring",
    Images:  []IngestFile{{Name: "a.jpg", Data: []byte("img")}},
  })
  if err != nil {
    t.Fatalf("Ingest: %v", err)
  }
  if !strings.Contains(result.Warning, `image "a.jpg" could not be uploaded`) {
    t.Fatalf("warning: got %q", result.Warning)
  }
}

func TestIngestWriteFailureSurfaces(t *testing.T) {
  fx := newIngestFixture(t)
  fx.artifacts.err = fmt.Errorf("insert failed")

  if _, err := fx.svc.Ingest(context.Background(), IngestInput{OwnerID: uuid.New(), Notes: "x"}); err == nil {
    t.Fatalf("want error when the final write fails")
  }
}

func TestIngestNoCollectionRefSkipsResolution(t *testing.T) {
  fx := newIngestFixture(t)

  if _, err := fx.svc.Ingest(context.Background(), IngestInput{OwnerID: uuid.New(), Notes: "x"}); err != nil {
    t.Fatalf("Ingest: %v", err)
  }
  if fx.collections.calls != 0 {
    t.Fatalf("resolution calls: want=0 got=%d", fx.collections.calls)
  }
}
