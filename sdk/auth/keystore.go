package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	recordExt       = ".json"
	rawExt          = ".val"
	migrationMarker = ".policy-migrated"
)

// FileKeystore is a SecureStore backed by per-key files under a private
// directory. The directory is created 0700 and every entry is written 0600,
// the on-disk equivalent of "available after first unlock, this device only";
// callers must point it at a path excluded from backup/sync.
//
// Records are JSON. Reads tolerate the legacy serialization where the file
// holds a bare access-token string instead of a structured record.
type FileKeystore struct {
	mu  sync.Mutex
	dir string
}

// NewFileKeystore opens (creating if needed) a keystore rooted at dir and
// runs the one-time access-policy migration over pre-existing entries.
func NewFileKeystore(dir string) (*FileKeystore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("keystore: directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore: create dir failed: %w", err)
	}
	s := &FileKeystore{dir: dir}
	if err := s.migrateAccessPolicy(); err != nil {
		log.Warnf("keystore: access policy migration incomplete: %v", err)
	}
	return s, nil
}

// migrateAccessPolicy tightens the permissions of entries written by older
// releases without altering their values. Runs once per store directory.
func (s *FileKeystore) migrateAccessPolicy() error {
	marker := filepath.Join(s.dir, migrationMarker)
	if _, err := os.Stat(marker); err == nil {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err = os.Chmod(filepath.Join(s.dir, entry.Name()), 0o600); err != nil {
			return err
		}
	}
	if err = os.Chmod(s.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(marker, nil, 0o600)
}

func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeKey(name string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(name)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (s *FileKeystore) recordPath(key string) string {
	return filepath.Join(s.dir, encodeKey(key)+recordExt)
}

func (s *FileKeystore) rawPath(key string) string {
	return filepath.Join(s.dir, encodeKey(key)+rawExt)
}

// Set writes or overwrites the credential record under key.
func (s *FileKeystore) Set(key string, token *AccessToken) bool {
	if key == "" || token == nil {
		return false
	}
	raw, err := json.Marshal(token)
	if err != nil {
		log.Errorf("keystore: marshal record for %q failed: %v", key, err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err = os.WriteFile(s.recordPath(key), raw, 0o600); err != nil {
		log.Errorf("keystore: write record for %q failed: %v", key, err)
		return false
	}
	return true
}

// Get reads the record under key, or nil when absent or unreadable.
func (s *FileKeystore) Get(key string) *AccessToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		return nil
	}
	return decodeRecord(raw, key)
}

// decodeRecord applies the ordered fallback decoders: structured JSON record
// first, then the legacy bare-string format with UID defaulted to the lookup
// key.
func decodeRecord(raw []byte, key string) *AccessToken {
	if gjson.ValidBytes(raw) && gjson.GetBytes(raw, "access_token").Exists() {
		var token AccessToken
		if err := json.Unmarshal(raw, &token); err == nil && token.AccessToken != "" {
			if token.UID == "" {
				token.UID = key
			}
			return &token
		}
	}
	bare := strings.TrimSpace(string(raw))
	if bare == "" {
		return nil
	}
	return &AccessToken{AccessToken: bare, UID: key}
}

// GetAll returns every stored record keyed by user identifier.
func (s *FileKeystore) GetAll() map[string]*AccessToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*AccessToken)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Errorf("keystore: list failed: %v", err)
		return out
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		key, ok := decodeKey(strings.TrimSuffix(name, recordExt))
		if !ok {
			continue
		}
		raw, errRead := os.ReadFile(filepath.Join(s.dir, name))
		if errRead != nil {
			continue
		}
		if token := decodeRecord(raw, key); token != nil {
			out[key] = token
		}
	}
	return out
}

// Keys lists the keys of all stored records in sorted order.
func (s *FileKeystore) Keys() []string {
	all := s.GetAll()
	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Delete removes the record under key. Returns false when no record existed
// or the removal failed.
func (s *FileKeystore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.recordPath(key)); err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("keystore: delete %q failed: %v", key, err)
		}
		return false
	}
	return true
}

// Clear removes all credential records. Raw slots are left in place.
func (s *FileKeystore) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Errorf("keystore: clear failed: %v", err)
		return false
	}
	ok := true
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		if errRemove := os.Remove(filepath.Join(s.dir, entry.Name())); errRemove != nil {
			log.Errorf("keystore: clear entry %q failed: %v", entry.Name(), errRemove)
			ok = false
		}
	}
	return ok
}

// SetRaw writes an opaque string slot.
func (s *FileKeystore) SetRaw(key, value string) bool {
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.rawPath(key), []byte(value), 0o600); err != nil {
		log.Errorf("keystore: write slot %q failed: %v", key, err)
		return false
	}
	return true
}

// GetRaw reads an opaque string slot, empty when absent.
func (s *FileKeystore) GetRaw(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.rawPath(key))
	if err != nil {
		return ""
	}
	return string(raw)
}

// DeleteRaw clears an opaque string slot.
func (s *FileKeystore) DeleteRaw(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.rawPath(key)); err != nil {
		return os.IsNotExist(err)
	}
	return true
}
