package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExtractEntry is the metadata stored next to a cached extraction.
type ExtractEntry struct {
	Format    string    `json:"format"`
	EntryName string    `json:"entry_name"`
	Chars     int       `json:"chars"`
	SavedAt   time.Time `json:"saved_at"`
}

// ExtractCache stores extracted text on disk as <key>.txt and
// <key>.meta.json where key is sha256(format, content). Identical content
// extracted with the same strategy is served without parsing it again. No
// eviction policy is included; see PurgeByAge.
type ExtractCache struct {
	Dir string
	// StrictPerms enforces 0700 on the directory and 0600 on files.
	StrictPerms bool
}

// Key builds the cache key for content handled by the strategy named id.
func Key(id string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(id))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *ExtractCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

func (c *ExtractCache) fileMode() os.FileMode {
	if c.StrictPerms {
		return 0o600
	}
	return 0o644
}

func (c *ExtractCache) textPath(key string) string { return filepath.Join(c.Dir, key+".txt") }
func (c *ExtractCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }

// Get returns the cached text for key. A miss is not an error. An entry is
// only served once its metadata exists, so a half-written save is a miss.
func (c *ExtractCache) Get(_ context.Context, key string) (string, bool, error) {
	if err := c.ensureDir(); err != nil {
		return "", false, err
	}
	if _, err := os.Stat(c.metaPath(key)); err != nil {
		return "", false, nil
	}
	b, err := os.ReadFile(c.textPath(key))
	if err != nil {
		return "", false, nil
	}
	return string(b), true, nil
}

// LoadMeta returns the metadata stored for key.
func (c *ExtractCache) LoadMeta(_ context.Context, key string) (*ExtractEntry, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return nil, err
	}
	var e ExtractEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Save stores text for key. The text is written first and the metadata is
// renamed into place last.
func (c *ExtractCache) Save(_ context.Context, key, format, entryName, text string) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	if err := os.WriteFile(c.textPath(key), []byte(text), c.fileMode()); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	meta := ExtractEntry{
		Format:    format,
		EntryName: entryName,
		Chars:     len(text),
		SavedAt:   time.Now().UTC(),
	}
	tmp := c.metaPath(key) + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, c.fileMode())
	if err != nil {
		return fmt.Errorf("create meta: %w", err)
	}
	if err := json.NewEncoder(f).Encode(&meta); err != nil {
		f.Close()
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, c.metaPath(key))
}
