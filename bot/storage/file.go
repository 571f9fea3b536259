package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/m3rciful/otpbot/bot/otp"
	"github.com/m3rciful/otpbot/core/logger"
	"log/slog"
)

// userRecord is the on-disk shape of a single user.
type userRecord struct {
	FirstName     string  `json:"first_name"`
	LastName      *string `json:"last_name"`
	Username      *string `json:"username"`
	RegisteredAt  string  `json:"registered_at"`
	OTPCount      int     `json:"otp_count"`
	VerifiedCount int     `json:"verified_count"`
}

// fileSnapshot is the flat-file document: users keyed by decimal id plus the
// time of the last save.
type fileSnapshot struct {
	Users     map[string]userRecord `json:"users"`
	Timestamp string                `json:"timestamp"`
}

// FileStore persists snapshots as a single JSON document.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed snapshotter at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot. A missing file yields an empty snapshot; a
// malformed one is an error (the store starts empty and logs it).
func (f *FileStore) Load() (*otp.Snapshot, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &otp.Snapshot{Users: map[int64]otp.User{}}, nil
		}
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}

	var doc fileSnapshot
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", f.path, err)
	}

	snap := &otp.Snapshot{Users: make(map[int64]otp.User, len(doc.Users))}
	for key, rec := range doc.Users {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			logger.Storage.Warn("skipping malformed user key",
				slog.String("event", "load"),
				slog.String("path", f.path),
				slog.String("err", err.Error()),
			)
			continue
		}
		snap.Users[id] = otp.User{
			ID:            id,
			FirstName:     rec.FirstName,
			LastName:      deref(rec.LastName),
			Username:      deref(rec.Username),
			RegisteredAt:  parseTimestamp(rec.RegisteredAt),
			OTPCount:      rec.OTPCount,
			VerifiedCount: rec.VerifiedCount,
		}
	}
	return snap, nil
}

// Save writes the snapshot atomically (temp file in the same directory,
// then rename).
func (f *FileStore) Save(snap *otp.Snapshot) error {
	doc := fileSnapshot{
		Users:     make(map[string]userRecord, len(snap.Users)),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	for id, u := range snap.Users {
		doc.Users[strconv.FormatInt(id, 10)] = userRecord{
			FirstName:     u.FirstName,
			LastName:      optional(u.LastName),
			Username:      optional(u.Username),
			RegisteredAt:  u.RegisteredAt.Format(time.RFC3339),
			OTPCount:      u.OTPCount,
			VerifiedCount: u.VerifiedCount,
		}
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: rename to %s: %w", f.path, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseTimestamp accepts RFC3339 as written by Save and the zone-less ISO
// form older data files may carry.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999", s); err == nil {
		return t
	}
	return time.Time{}
}
