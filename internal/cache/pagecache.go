package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry is the metadata kept next to a cached page body.
type Entry struct {
	URL          string    `json:"url"`
	FinalURL     string    `json:"final_url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// Validators reports whether the entry can be revalidated with a conditional request.
func (e Entry) Validators() bool { return e.ETag != "" || e.LastModified != "" }

// PageCache stores fetched pages on disk as <key>.meta.json and <key>.body
// where key is sha256(url). Entries younger than MaxAge are served without
// revalidation; older ones are revalidated when they carry validators.
// There is no eviction.
type PageCache struct {
	Dir    string
	MaxAge time.Duration

	now func() time.Time
}

func (c *PageCache) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *PageCache) key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *PageCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *PageCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// Lookup returns the cached entry and body for url. ok is false on a miss or
// when either file is unreadable.
func (c *PageCache) Lookup(url string) (e Entry, body []byte, ok bool) {
	if c == nil || c.Dir == "" {
		return Entry{}, nil, false
	}
	key := c.key(url)
	b, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return Entry{}, nil, false
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, nil, false
	}
	body, err = os.ReadFile(c.bodyPath(key))
	if err != nil {
		return Entry{}, nil, false
	}
	return e, body, true
}

// Fresh reports whether e can be served without contacting the origin.
func (c *PageCache) Fresh(e Entry) bool {
	if c == nil || c.MaxAge <= 0 {
		return false
	}
	return c.clock().Sub(e.SavedAt) < c.MaxAge
}

// Save writes the body first and then the metadata, so a reader never sees
// metadata without a body.
func (c *PageCache) Save(e Entry, body []byte) error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	key := c.key(e.URL)
	if err := os.WriteFile(c.bodyPath(key), body, 0o644); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	e.SavedAt = c.clock().UTC()
	meta, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	tmp := c.metaPath(key) + ".tmp"
	if err := os.WriteFile(tmp, meta, 0o644); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return os.Rename(tmp, c.metaPath(key))
}

// Touch refreshes SavedAt after a successful revalidation.
func (c *PageCache) Touch(e Entry) error {
	_, body, ok := c.Lookup(e.URL)
	if !ok {
		return errors.New("cache entry missing")
	}
	return c.Save(e, body)
}
