package services

import (
  "context"
  "net/http"
  "net/http/httptest"
  "strings"
  "sync/atomic"
  "testing"

  "github.com/yungbote/heirlooms-backend/internal/types"
)

func TestNormalizeUploadResult(t *testing.T) {
  cases := []struct {
    name    string
    raw     string
    want    string
    wantErr bool
  }{
    {"bare string", `"https://img.example.com/a.jpg"`, "https://img.example.com/a.jpg", false},
    {"secure_url", `{"secure_url":"https://img.example.com/a.jpg"}`, "https://img.example.com/a.jpg", false},
    {"url", `{"url":"https://img.example.com/a.jpg"}`, "https://img.example.com/a.jpg", false},
    {"secure_url wins over url", `{"secure_url":"https://s","url":"https://u"}`, "https://s", false},
    {"nested data object", `{"data":{"url":"https://img.example.com/a.jpg"}}`, "https://img.example.com/a.jpg", false},
    {"nested data string", `{"data":"https://img.example.com/a.jpg"}`, "https://img.example.com/a.jpg", false},
    {"doubly nested", `{"data":{"data":{"secure_url":"https://deep"}}}`, "https://deep", false},
    {"null data", `{"data":null}`, "", true},
    {"empty object", `{}`, "", true},
    {"garbage", `not json at all`, "", true},
    {"empty string", `""`, "", true},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      got, err := normalizeUploadResult([]byte(tc.raw))
      if tc.wantErr {
        if err == nil {
          t.Fatalf("want error, got url %q", got)
        }
        return
      }
      if err != nil {
        t.Fatalf("unexpected error: %v", err)
      }
      if got != tc.want {
        t.Fatalf("url: want=%q got=%q", tc.want, got)
      }
    })
  }
}

func TestObjectKeyShape(t *testing.T) {
  key := objectKey(types.MediaKindImage, "../../etc/pass wd.jpg")
  if !strings.HasPrefix(key, "artifacts/image/") {
    t.Fatalf("key prefix: got %q", key)
  }
  if strings.Contains(key, "..") || strings.Contains(key, " ") {
    t.Fatalf("key not sanitized: %q", key)
  }
  if !strings.HasSuffix(key, "/pass-wd.jpg") {
    t.Fatalf("base name not preserved: %q", key)
  }
}

func TestObjectKeyEmptyName(t *testing.T) {
  key := objectKey(types.MediaKindAudio, "")
  if !strings.HasPrefix(key, "artifacts/audio/") || !strings.HasSuffix(key, "/file") {
    t.Fatalf("fallback base not used: %q", key)
  }
}

func newImageHostService(t *testing.T, srvURL string) MediaService {
  t.Helper()
  t.Setenv("MEDIA_STORAGE_MODE", "imagehost")
  t.Setenv("IMAGE_HOST_UPLOAD_URL", srvURL)
  t.Setenv("IMAGE_HOST_TOKEN", "test-token")
  ms, err := NewMediaService(newTestLogger(t), nil)
  if err != nil {
    t.Fatalf("NewMediaService: %v", err)
  }
  return ms
}

func TestMediaUploadImageHost(t *testing.T) {
  var gotAuth atomic.Value
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    gotAuth.Store(r.Header.Get("Authorization"))
    if err := r.ParseMultipartForm(1 << 20); err != nil {
      http.Error(w, err.Error(), http.StatusBadRequest)
      return
    }
    if _, _, err := r.FormFile("file"); err != nil {
      http.Error(w, err.Error(), http.StatusBadRequest)
      return
    }
    w.Write([]byte(`{"data":{"secure_url":"https://cdn.example.com/a.jpg"}}`))
  }))
  defer srv.Close()

  ms := newImageHostService(t, srv.URL)
  url, err := ms.Upload(context.Background(), types.MediaKindImage, "a.jpg", []byte("img-bytes"))
  if err != nil {
    t.Fatalf("Upload: %v", err)
  }
  if url != "https://cdn.example.com/a.jpg" {
    t.Fatalf("url: got %q", url)
  }
  if auth, _ := gotAuth.Load().(string); auth != "Bearer test-token" {
    t.Fatalf("authorization header: got %q", auth)
  }
}

func TestMediaUploadImageHostRetriesServerError(t *testing.T) {
  var calls atomic.Int32
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    if calls.Add(1) == 1 {
      http.Error(w, "temporary", http.StatusInternalServerError)
      return
    }
    w.Write([]byte(`{"url":"https://cdn.example.com/b.jpg"}`))
  }))
  defer srv.Close()

  ms := newImageHostService(t, srv.URL)
  url, err := ms.Upload(context.Background(), types.MediaKindImage, "b.jpg", []byte("img-bytes"))
  if err != nil {
    t.Fatalf("Upload: %v", err)
  }
  if url != "https://cdn.example.com/b.jpg" {
    t.Fatalf("url: got %q", url)
  }
  if got := calls.Load(); got != 2 {
    t.Fatalf("host calls: want=2 got=%d", got)
  }
}

func TestMediaUploadImageHostDoesNotRetryClientError(t *testing.T) {
  var calls atomic.Int32
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    calls.Add(1)
    http.Error(w, "bad request", http.StatusBadRequest)
  }))
  defer srv.Close()

  ms := newImageHostService(t, srv.URL)
  if _, err := ms.Upload(context.Background(), types.MediaKindImage, "c.jpg", []byte("img-bytes")); err == nil {
    t.Fatalf("want error on http 400")
  }
  if got := calls.Load(); got != 1 {
    t.Fatalf("host calls: want=1 got=%d", got)
  }
}

func TestMediaUploadRejectsEmptyFile(t *testing.T) {
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    t.Fatalf("host must not be called for empty files")
  }))
  defer srv.Close()

  ms := newImageHostService(t, srv.URL)
  if _, err := ms.Upload(context.Background(), types.MediaKindImage, "empty.jpg", nil); err == nil {
    t.Fatalf("want error for empty file")
  }
}

func TestNewMediaServiceValidation(t *testing.T) {
  t.Run("gcs mode requires bucket", func(t *testing.T) {
    t.Setenv("MEDIA_STORAGE_MODE", "gcs")
    if _, err := NewMediaService(newTestLogger(t), nil); err == nil {
      t.Fatalf("want error without bucket service")
    }
  })
  t.Run("imagehost mode requires upload url", func(t *testing.T) {
    t.Setenv("MEDIA_STORAGE_MODE", "imagehost")
    t.Setenv("IMAGE_HOST_UPLOAD_URL", "")
    if _, err := NewMediaService(newTestLogger(t), nil); err == nil {
      t.Fatalf("want error without IMAGE_HOST_UPLOAD_URL")
    }
  })
  t.Run("unknown mode", func(t *testing.T) {
    t.Setenv("MEDIA_STORAGE_MODE", "carrier-pigeon")
    if _, err := NewMediaService(newTestLogger(t), nil); err == nil {
      t.Fatalf("want error for unknown mode")
    }
  })
}
