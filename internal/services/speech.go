package services

import (
  "context"
  "fmt"
  "os"
  "path/filepath"
  "strings"
  "time"

  speech "cloud.google.com/go/speech/apiv1"
  "cloud.google.com/go/speech/apiv1/speechpb"
  "google.golang.org/api/option"
  "google.golang.org/grpc/codes"
  "google.golang.org/grpc/status"

  "github.com/yungbote/heirlooms-backend/internal/logger"
)

// SpeechService turns a voice note into transcript text. The ingest pipeline
// treats every failure here as "no transcript", so errors never bubble past
// the orchestrator.
type SpeechService interface {
  TranscribeAudioBytes(ctx context.Context, audio []byte, mimeType string) (string, error)
  Close() error
}

type speechService struct {
  log        *logger.Logger
  client     *speech.Client
  maxRetries int
}

func NewSpeechService(log *logger.Logger) (SpeechService, error) {
  if log == nil {
    return nil, fmt.Errorf("logger required")
  }
  slog := log.With("service", "SpeechService")

  creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
  if creds == "" {
    creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
  }

  ctx := context.Background()
  var c *speech.Client
  var err error
  if creds != "" {
    c, err = speech.NewClient(ctx, option.WithCredentialsFile(creds))
  } else {
    c, err = speech.NewClient(ctx)
  }
  if err != nil {
    return nil, fmt.Errorf("speech client: %w", err)
  }

  return &speechService{
    log:        slog,
    client:     c,
    maxRetries: 3,
  }, nil
}

func (s *speechService) Close() error {
  if s == nil || s.client == nil {
    return nil
  }
  return s.client.Close()
}

func (s *speechService) TranscribeAudioBytes(ctx context.Context, audio []byte, mimeType string) (string, error) {
  // voice notes are short; keep a strict ceiling
  ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
  defer cancel()

  if len(audio) == 0 {
    return "", nil
  }

  req := &speechpb.LongRunningRecognizeRequest{
    Config: &speechpb.RecognitionConfig{
      LanguageCode:               "en-US",
      EnableAutomaticPunctuation: true,
      Encoding:                   inferSpeechEncoding(mimeType),
    },
    Audio: &speechpb.RecognitionAudio{
      AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
    },
  }

  resp, err := s.retryLR(ctx, func() (*speechpb.LongRunningRecognizeResponse, error) {
    op, err := s.client.LongRunningRecognize(ctx, req)
    if err != nil {
      return nil, err
    }
    return op.Wait(ctx)
  })
  if err != nil {
    return "", fmt.Errorf("speech longrunningrecognize: %w", err)
  }

  var full strings.Builder
  for _, r := range resp.GetResults() {
    if len(r.GetAlternatives()) == 0 {
      continue
    }
    t := strings.TrimSpace(r.GetAlternatives()[0].GetTranscript())
    if t == "" {
      continue
    }
    if full.Len() > 0 {
      full.WriteString(" ")
    }
    full.WriteString(t)
  }
  return full.String(), nil
}

func inferSpeechEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
  m := strings.ToLower(strings.TrimSpace(mimeType))
  ext := strings.ToLower(filepath.Ext(m))

  switch {
  case strings.Contains(m, "wav") || ext == ".wav":
    return speechpb.RecognitionConfig_LINEAR16
  case strings.Contains(m, "flac") || ext == ".flac":
    return speechpb.RecognitionConfig_FLAC
  case strings.Contains(m, "mp3") || strings.Contains(m, "mpeg") || ext == ".mp3":
    return speechpb.RecognitionConfig_MP3
  case strings.Contains(m, "ogg") || strings.Contains(m, "opus") || ext == ".ogg":
    return speechpb.RecognitionConfig_OGG_OPUS
  default:
    // leave unspecified; the API can often auto-detect
    return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
  }
}

func (s *speechService) retryLR(ctx context.Context, fn func() (*speechpb.LongRunningRecognizeResponse, error)) (*speechpb.LongRunningRecognizeResponse, error) {
  backoff := 750 * time.Millisecond
  var last error
  for attempt := 0; attempt <= s.maxRetries; attempt++ {
    if ctx.Err() != nil {
      return nil, ctx.Err()
    }
    resp, err := fn()
    if err == nil {
      return resp, nil
    }
    last = err

    code := status.Code(err)
    if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
      return nil, err
    }
    if attempt == s.maxRetries {
      break
    }
    time.Sleep(backoff)
    backoff *= 2
    if backoff > 10*time.Second {
      backoff = 10 * time.Second
    }
  }
  return nil, last
}
