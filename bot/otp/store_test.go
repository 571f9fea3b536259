package otp

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/otpbot/core/config"
)

func testCatalog() *Catalog {
	return NewCatalog(coreconfig.DefaultServices())
}

// fakeClock drives store time in tests.
type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(testCatalog(), nil)
	s.now = clock.Now
	return s, clock
}

func TestRegisterIdempotent(t *testing.T) {
	s, clock := newTestStore(t)

	first := s.Register(Profile{ID: 7, FirstName: "Ann", Username: "ann"})
	if first.RegisteredAt != clock.t {
		t.Fatalf("RegisteredAt = %v, want %v", first.RegisteredAt, clock.t)
	}

	clock.Advance(time.Hour)
	again := s.Register(Profile{ID: 7, FirstName: "Other"})
	if again.FirstName != "Ann" {
		t.Fatalf("second Register overwrote profile: %q", again.FirstName)
	}
	if again.RegisteredAt != first.RegisteredAt {
		t.Fatal("second Register changed RegisteredAt")
	}
}

func TestGenerateUnknownService(t *testing.T) {
	s, _ := newTestStore(t)
	s.Register(Profile{ID: 1, FirstName: "A"})

	if _, err := s.Generate(1, "nope"); err != ErrUnknownService {
		t.Fatalf("Generate(unknown) err = %v, want ErrUnknownService", err)
	}
}

func TestGenerateSetsExpiryAndCounter(t *testing.T) {
	s, clock := newTestStore(t)
	s.Register(Profile{ID: 1, FirstName: "A"})

	code, err := s.Generate(1, "login_2fa")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(code.Value) != 6 {
		t.Fatalf("code length = %d, want 6", len(code.Value))
	}
	for _, r := range code.Value {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit in code %q", code.Value)
		}
	}
	if want := clock.t.Add(180 * time.Second); !code.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", code.ExpiresAt, want)
	}

	st, err := s.Stats(1)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.User.OTPCount != 1 {
		t.Fatalf("OTPCount = %d, want 1", st.User.OTPCount)
	}
}

func TestGenerateReplacesLiveCode(t *testing.T) {
	s, _ := newTestStore(t)
	s.Register(Profile{ID: 1, FirstName: "A"})

	first, _ := s.Generate(1, "login_2fa")
	second, _ := s.Generate(1, "password_reset")

	cur := s.CurrentCode(1)
	if cur == nil || cur.Value != second.Value || cur.ServiceID != "password_reset" {
		t.Fatalf("CurrentCode = %+v, want the replacement code", cur)
	}

	if first.Value != second.Value {
		res := s.Verify(1, first.Value)
		if res.Status != VerifyInvalid {
			t.Fatalf("verify of replaced code: status = %v, want VerifyInvalid", res.Status)
		}
	}

	st, _ := s.Stats(1)
	if st.User.OTPCount != 2 {
		t.Fatalf("OTPCount = %d, want 2", st.User.OTPCount)
	}
}

func TestVerifyLifecycle(t *testing.T) {
	s, clock := newTestStore(t)
	s.Register(Profile{ID: 1, FirstName: "A"})

	// T=0: generate for login_2fa (180s expiry).
	code, _ := s.Generate(1, "login_2fa")
	if want := clock.t.Add(180 * time.Second); !code.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", code.ExpiresAt, want)
	}

	// T=100: correct code verifies once.
	clock.Advance(100 * time.Second)
	res := s.Verify(1, code.Value)
	if res.Status != VerifySuccess {
		t.Fatalf("Verify = %v, want VerifySuccess", res.Status)
	}
	if res.Code == nil || !res.Code.Used || res.Code.ServiceID != "login_2fa" {
		t.Fatalf("Success code = %+v", res.Code)
	}

	st, _ := s.Stats(1)
	if st.User.OTPCount != 1 || st.User.VerifiedCount != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", st.User.OTPCount, st.User.VerifiedCount)
	}

	// The record is consumed: same code again has nothing to match.
	if res := s.Verify(1, code.Value); res.Status != VerifyNoActiveCode {
		t.Fatalf("second Verify = %v, want VerifyNoActiveCode", res.Status)
	}

	// T=150: fresh generate; the old code no longer matches anything live.
	clock.Advance(50 * time.Second)
	replacement, _ := s.Generate(1, "login_2fa")
	clock.Advance(50 * time.Second)
	if replacement.Value != code.Value {
		if res := s.Verify(1, code.Value); res.Status != VerifyInvalid {
			t.Fatalf("stale code Verify = %v, want VerifyInvalid", res.Status)
		}
	}
}

func TestVerifyExpired(t *testing.T) {
	s, clock := newTestStore(t)
	s.Register(Profile{ID: 1, FirstName: "A"})

	// transaction_verify expires after 120s.
	code, _ := s.Generate(1, "transaction_verify")

	clock.Advance(130 * time.Second)
	if res := s.Verify(1, code.Value); res.Status != VerifyExpired {
		t.Fatalf("Verify after expiry = %v, want VerifyExpired", res.Status)
	}
	// The expired record was deleted by the previous check.
	if res := s.Verify(1, code.Value); res.Status != VerifyNoActiveCode {
		t.Fatalf("Verify after removal = %v, want VerifyNoActiveCode", res.Status)
	}
}

func TestVerifyInvalidLeavesCodeLive(t *testing.T) {
	s, _ := newTestStore(t)
	s.Register(Profile{ID: 1, FirstName: "A"})

	code, _ := s.Generate(1, "email_verification")
	wrong := "000000"
	if wrong == code.Value {
		wrong = "000001"
	}

	if res := s.Verify(1, wrong); res.Status != VerifyInvalid {
		t.Fatalf("Verify(wrong) = %v, want VerifyInvalid", res.Status)
	}

	cur := s.CurrentCode(1)
	if cur == nil || cur.Value != code.Value {
		t.Fatalf("CurrentCode after invalid attempt = %+v, want original", cur)
	}

	st, _ := s.Stats(1)
	if st.User.VerifiedCount != 0 {
		t.Fatalf("VerifiedCount = %d, want 0", st.User.VerifiedCount)
	}
}

func TestVerifyCurrent(t *testing.T) {
	s, clock := newTestStore(t)
	s.Register(Profile{ID: 1, FirstName: "A"})

	if res := s.VerifyCurrent(1); res.Status != VerifyNoActiveCode {
		t.Fatalf("VerifyCurrent without code = %v, want VerifyNoActiveCode", res.Status)
	}

	s.Generate(1, "account_security")
	if res := s.VerifyCurrent(1); res.Status != VerifySuccess {
		t.Fatalf("VerifyCurrent = %v, want VerifySuccess", res.Status)
	}

	s.Generate(1, "account_security")
	clock.Advance(301 * time.Second)
	if res := s.VerifyCurrent(1); res.Status != VerifyExpired {
		t.Fatalf("VerifyCurrent after expiry = %v, want VerifyExpired", res.Status)
	}
}

func TestCurrentCodeDoesNotMutate(t *testing.T) {
	s, clock := newTestStore(t)
	s.Register(Profile{ID: 1, FirstName: "A"})

	code, _ := s.Generate(1, "transaction_verify")
	clock.Advance(130 * time.Second)

	if cur := s.CurrentCode(1); cur != nil {
		t.Fatalf("CurrentCode on expired = %+v, want nil", cur)
	}
	// The expired record is still there for Verify to classify.
	if res := s.Verify(1, code.Value); res.Status != VerifyExpired {
		t.Fatalf("Verify = %v, want VerifyExpired", res.Status)
	}
}

func TestStatsUnknownUser(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Stats(404); err != ErrUnknownUser {
		t.Fatalf("Stats(unregistered) err = %v, want ErrUnknownUser", err)
	}
}

func TestStatsLiveCodeSummary(t *testing.T) {
	s, clock := newTestStore(t)
	s.Register(Profile{ID: 1, FirstName: "A"})
	code, _ := s.Generate(1, "password_reset")

	clock.Advance(100 * time.Second)
	st, err := s.Stats(1)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Live == nil || st.Live.Value != code.Value {
		t.Fatalf("Live = %+v, want the generated code", st.Live)
	}
	if st.Left != 500*time.Second {
		t.Fatalf("Left = %v, want 500s", st.Left)
	}

	clock.Advance(501 * time.Second)
	st, _ = s.Stats(1)
	if st.Live != nil || !st.Expired {
		t.Fatalf("after expiry: Live = %+v, Expired = %v", st.Live, st.Expired)
	}
}

func TestUsersCount(t *testing.T) {
	s, _ := newTestStore(t)
	if got := s.Users(); got != 0 {
		t.Fatalf("Users = %d, want 0", got)
	}
	s.Register(Profile{ID: 1, FirstName: "A"})
	s.Register(Profile{ID: 2, FirstName: "B"})
	s.Register(Profile{ID: 1, FirstName: "A"})
	if got := s.Users(); got != 2 {
		t.Fatalf("Users = %d, want 2", got)
	}
}
