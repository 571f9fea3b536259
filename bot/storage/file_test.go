package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m3rciful/otpbot/bot/otp"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_data.json")
	fs := NewFileStore(path)

	registered := time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)
	in := &otp.Snapshot{Users: map[int64]otp.User{
		42: {
			ID:            42,
			FirstName:     "Ann",
			Username:      "ann",
			RegisteredAt:  registered,
			OTPCount:      3,
			VerifiedCount: 2,
		},
		99: {ID: 99, FirstName: "Bob", RegisteredAt: registered},
	}}

	if err := fs.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := fs.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out.Users) != 2 {
		t.Fatalf("loaded %d users, want 2", len(out.Users))
	}
	ann := out.Users[42]
	if ann.FirstName != "Ann" || ann.Username != "ann" || ann.OTPCount != 3 || ann.VerifiedCount != 2 {
		t.Fatalf("loaded user = %+v", ann)
	}
	if !ann.RegisteredAt.Equal(registered) {
		t.Fatalf("RegisteredAt = %v, want %v", ann.RegisteredAt, registered)
	}
	bob := out.Users[99]
	if bob.LastName != "" || bob.Username != "" {
		t.Fatalf("empty optionals came back as %q/%q", bob.LastName, bob.Username)
	}
}

func TestFileStoreDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_data.json")
	fs := NewFileStore(path)

	snap := &otp.Snapshot{Users: map[int64]otp.User{
		7: {ID: 7, FirstName: "Ann", RegisteredAt: time.Now()},
	}}
	if err := fs.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	if _, ok := doc["users"]; !ok {
		t.Fatal(`document missing "users" key`)
	}
	if _, ok := doc["timestamp"]; !ok {
		t.Fatal(`document missing "timestamp" key`)
	}

	var users map[string]map[string]any
	if err := json.Unmarshal(doc["users"], &users); err != nil {
		t.Fatalf("users block: %v", err)
	}
	if _, ok := users["7"]; !ok {
		t.Fatalf("users keyed by %v, want decimal string ids", users)
	}
	// last_name is null, not absent, for a user without one.
	if v, ok := users["7"]["last_name"]; !ok || v != nil {
		t.Fatalf("last_name = %v (present=%v), want explicit null", v, ok)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	snap, err := fs.Load()
	if err != nil {
		t.Fatalf("Load(missing) err = %v, want nil", err)
	}
	if len(snap.Users) != 0 {
		t.Fatalf("Load(missing) users = %d, want 0", len(snap.Users))
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(); err == nil {
		t.Fatal("Load(corrupt) err = nil, want error")
	}
}
