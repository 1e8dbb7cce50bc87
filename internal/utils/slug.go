package utils

import (
  "math/rand"
  "strings"
)

const slugMaxLen = 60

// Slugify maps a title to a lowercase token of alphanumerics and single
// hyphens, trimmed and capped at 60 chars. An empty result falls back to a
// randomized "artifact-xxxxxx" token so every artifact gets a routable slug.
func Slugify(title string) string {
  var b strings.Builder
  lastHyphen := false
  for _, r := range strings.ToLower(title) {
    switch {
    case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
      b.WriteRune(r)
      lastHyphen = false
    default:
      if !lastHyphen && b.Len() > 0 {
        b.WriteByte('-')
        lastHyphen = true
      }
    }
  }
  s := strings.Trim(b.String(), "-")
  if len(s) > slugMaxLen {
    s = strings.Trim(s[:slugMaxLen], "-")
  }
  if s == "" {
    return "artifact-" + randomBase36(6)
  }
  return s
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int) string {
  b := make([]byte, n)
  for i := range b {
    b[i] = base36[rand.Intn(len(base36))]
  }
  return string(b)
}
