package otp

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/m3rciful/otpbot/core/logger"
	"log/slog"
)

// Sentinel errors surfaced to the session layer.
var (
	ErrUnknownService = errors.New("unknown service")
	ErrUnknownUser    = errors.New("unknown user")
)

const codeLength = 6

// Profile carries the identity fields captured at first contact.
type Profile struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// User is a registered bot user. Only the two counters mutate after creation.
type User struct {
	ID            int64
	FirstName     string
	LastName      string
	Username      string
	RegisteredAt  time.Time
	OTPCount      int
	VerifiedCount int
}

// Code is the single live OTP of a user.
type Code struct {
	Value       string
	ServiceID   string
	ServiceName string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Used        bool
}

// Remaining returns the time left until expiry at the given instant.
func (c *Code) Remaining(now time.Time) time.Duration {
	if c == nil {
		return 0
	}
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// VerifyStatus enumerates verification outcomes. These are results, not errors.
type VerifyStatus int

const (
	// VerifyNoActiveCode means no live OTP record exists for the user.
	VerifyNoActiveCode VerifyStatus = iota
	// VerifyExpired means the live record was past expiry and has been removed.
	VerifyExpired
	// VerifyInvalid means the submitted code did not match; the record stays live.
	VerifyInvalid
	// VerifySuccess means the code matched; the record has been consumed.
	VerifySuccess
)

// VerifyResult is the outcome of a verification attempt. Code is set only on
// success and describes the consumed record.
type VerifyResult struct {
	Status VerifyStatus
	Code   *Code
}

// UserStats is the read model for the stats surface.
type UserStats struct {
	User    User
	Live    *Code
	Left    time.Duration
	Expired bool
}

// Snapshot is the persisted subset of store state. Live codes are volatile
// and survive only within a single process run.
type Snapshot struct {
	Users map[int64]User
}

// Snapshotter persists snapshots. Save failures are logged and swallowed;
// in-memory state stays authoritative for the run.
type Snapshotter interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
}

// Store owns user profiles and live OTPs. All operations are serialized
// under one mutex; saves run on a background goroutine.
type Store struct {
	mu      sync.Mutex
	users   map[int64]*User
	codes   map[int64]*Code
	catalog *Catalog

	snap    Snapshotter
	saveReq chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup

	now func() time.Time
}

// NewStore creates a store, loads the persisted snapshot (a load failure
// starts the store empty), and starts the background saver.
func NewStore(catalog *Catalog, snap Snapshotter) *Store {
	s := &Store{
		users:   make(map[int64]*User),
		codes:   make(map[int64]*Code),
		catalog: catalog,
		snap:    snap,
		saveReq: make(chan struct{}, 1),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	if snap != nil {
		loaded, err := snap.Load()
		switch {
		case err != nil:
			logger.Store.Warn("snapshot load failed",
				slog.String("event", "load"),
				slog.String("status", "error"),
				slog.String("err", err.Error()),
			)
		case loaded != nil:
			for id, u := range loaded.Users {
				rec := u
				rec.ID = id
				s.users[id] = &rec
			}
			logger.Store.Info("snapshot loaded",
				slog.String("event", "load"),
				slog.String("status", "ok"),
				slog.Int("users", len(s.users)),
			)
		}
		s.wg.Add(1)
		go s.saver()
	}
	return s
}

// Close flushes one final save and stops the saver goroutine.
func (s *Store) Close() {
	if s.snap == nil {
		return
	}
	close(s.done)
	s.wg.Wait()
	s.persist()
}

// Register creates a user record on first contact. Idempotent: an existing
// record is returned untouched.
func (s *Store) Register(p Profile) *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[p.ID]; ok {
		return u
	}
	u := &User{
		ID:           p.ID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Username:     p.Username,
		RegisteredAt: s.now(),
	}
	s.users[p.ID] = u
	logger.Store.Info("user registered",
		slog.String("event", "register"),
		slog.Int64("user_id", p.ID),
	)
	s.scheduleSave()
	return u
}

// Generate issues a fresh code for serviceID, silently replacing any live
// code the user had. Returns ErrUnknownService for an undefined id.
func (s *Store) Generate(userID int64, serviceID string) (*Code, error) {
	svc, ok := s.catalog.Get(serviceID)
	if !ok {
		return nil, ErrUnknownService
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	code := &Code{
		Value:       randomDigits(codeLength),
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		CreatedAt:   now,
		ExpiresAt:   now.Add(svc.Expiry),
	}
	s.codes[userID] = code
	if u, ok := s.users[userID]; ok {
		u.OTPCount++
	}
	logger.Store.Info("code generated",
		slog.String("event", "generate"),
		slog.Int64("user_id", userID),
		slog.String("service", svc.ID),
	)
	s.scheduleSave()
	return code, nil
}

// CurrentCode returns the user's live, unexpired code or nil. It never
// mutates state: expired records are removed only inside Verify.
func (s *Store) CurrentCode(userID int64) *Code {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[userID]
	if !ok || code.Used || s.now().After(code.ExpiresAt) {
		return nil
	}
	cp := *code
	return &cp
}

// Verify checks submitted against the user's live code. An expired record is
// deleted as a side effect of the check; a mismatch leaves it live.
func (s *Store) Verify(userID int64, submitted string) VerifyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyLocked(userID, submitted)
}

// VerifyCurrent verifies the live code against itself (the "verify current"
// button): it consumes the code when unexpired, or reports why it cannot.
func (s *Store) VerifyCurrent(userID int64) VerifyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[userID]
	if !ok {
		return VerifyResult{Status: VerifyNoActiveCode}
	}
	return s.verifyLocked(userID, code.Value)
}

func (s *Store) verifyLocked(userID int64, submitted string) VerifyResult {
	code, ok := s.codes[userID]
	if !ok {
		return VerifyResult{Status: VerifyNoActiveCode}
	}
	if s.now().After(code.ExpiresAt) {
		delete(s.codes, userID)
		logger.Store.Info("code expired",
			slog.String("event", "verify"),
			slog.String("outcome", "expired"),
			slog.Int64("user_id", userID),
			slog.String("service", code.ServiceID),
		)
		return VerifyResult{Status: VerifyExpired}
	}
	if code.Value != submitted {
		return VerifyResult{Status: VerifyInvalid}
	}

	code.Used = true
	delete(s.codes, userID)
	if u, ok := s.users[userID]; ok {
		u.VerifiedCount++
	}
	logger.Store.Info("code verified",
		slog.String("event", "verify"),
		slog.String("outcome", "success"),
		slog.Int64("user_id", userID),
		slog.String("service", code.ServiceID),
	)
	s.scheduleSave()
	consumed := *code
	return VerifyResult{Status: VerifySuccess, Code: &consumed}
}

// Stats returns the user's counters and live-code summary. ErrUnknownUser is
// returned for a user that never registered.
func (s *Store) Stats(userID int64) (UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return UserStats{}, ErrUnknownUser
	}

	st := UserStats{User: *u}
	if code, ok := s.codes[userID]; ok {
		now := s.now()
		if now.After(code.ExpiresAt) {
			// Shown as expired; the record itself is only removed by Verify.
			st.Expired = true
		} else {
			cp := *code
			st.Live = &cp
			st.Left = code.Remaining(now)
		}
	}
	return st, nil
}

// Users returns the number of registered users.
func (s *Store) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// snapshotLocked copies the persisted subset under the held mutex.
func (s *Store) snapshotLocked() *Snapshot {
	snap := &Snapshot{Users: make(map[int64]User, len(s.users))}
	for id, u := range s.users {
		snap.Users[id] = *u
	}
	return snap
}

// scheduleSave requests a background save; a pending request coalesces.
func (s *Store) scheduleSave() {
	if s.snap == nil {
		return
	}
	select {
	case s.saveReq <- struct{}{}:
	default:
	}
}

func (s *Store) saver() {
	defer s.wg.Done()
	for {
		select {
		case <-s.saveReq:
			s.persist()
		case <-s.done:
			return
		}
	}
}

func (s *Store) persist() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.snap.Save(snap); err != nil {
		logger.Store.Warn("snapshot save failed",
			slog.String("event", "save"),
			slog.String("status", "error"),
			slog.String("err", err.Error()),
		)
	}
}

// randomDigits draws length digits from a uniform, non-cryptographic source.
// Codes are short-lived and single-use; crypto-grade randomness is out of scope.
func randomDigits(length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = byte('0' + rand.IntN(10))
	}
	return string(buf)
}
