package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/otpbot/bot/otp"
	coreconfig "github.com/m3rciful/otpbot/core/config"
)

func testCatalog() *otp.Catalog {
	return otp.NewCatalog(coreconfig.DefaultServices())
}

func TestIsOTPInput(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"482913", true},
		{"000000", true},
		{"12345", false},   // five digits
		{"1234567", false}, // seven digits
		{"abcdef", false},
		{"12345a", false},
		{"12 456", false},
		{"", false},
		{"٠١٢٣٤٥", false}, // non-ASCII digits
	}
	for _, tc := range cases {
		if got := isOTPInput(tc.text); got != tc.want {
			t.Errorf("isOTPInput(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestGeneratedText(t *testing.T) {
	created := time.Date(2025, 6, 1, 14, 30, 45, 0, time.UTC)
	svc := otp.Service{ID: "login_2fa", Name: "2FA Login", Expiry: 180 * time.Second}
	code := &otp.Code{
		Value:       "482913",
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		CreatedAt:   created,
		ExpiresAt:   created.Add(svc.Expiry),
	}

	text := generatedText(code, svc)
	for _, want := range []string{"`482913`", "2FA Login", "3:00", "14:30:45"} {
		if !strings.Contains(text, want) {
			t.Errorf("generatedText missing %q:\n%s", want, text)
		}
	}
}

func TestVerifyInfoText(t *testing.T) {
	live := &otp.Code{Value: "111222", ServiceName: "Password Reset"}
	text := verifyInfoText(live, 95*time.Second)
	for _, want := range []string{"`111222`", "Password Reset", "1:35"} {
		if !strings.Contains(text, want) {
			t.Errorf("verifyInfoText missing %q:\n%s", want, text)
		}
	}

	empty := verifyInfoText(nil, 0)
	if !strings.Contains(empty, "No active OTP") {
		t.Errorf("verifyInfoText(nil) missing no-active marker:\n%s", empty)
	}
}

func TestStatsText(t *testing.T) {
	st := otp.UserStats{
		User: otp.User{
			FirstName:     "Ann",
			LastName:      "Lee",
			Username:      "ann",
			RegisteredAt:  time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			OTPCount:      4,
			VerifiedCount: 3,
		},
		Live: &otp.Code{Value: "999000", ServiceName: "Email Verification"},
		Left: 70 * time.Second,
	}

	text := statsText(st, 5)
	for _, want := range []string{
		"Ann Lee", "@ann", "March 15, 2025",
		"Total OTPs Generated: 4", "Total OTPs Verified: 3", "75.0%",
		"`999000`", "1:10", "Active ✅",
		"*🛠️ Available Services:* 5",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("statsText missing %q:\n%s", want, text)
		}
	}
}

func TestStatsTextZeroGenerated(t *testing.T) {
	st := otp.UserStats{User: otp.User{FirstName: "New", RegisteredAt: time.Now()}}
	text := statsText(st, 5)
	if !strings.Contains(text, "0.0%") {
		t.Errorf("success rate with zero generations should be 0.0%%:\n%s", text)
	}
	if !strings.Contains(text, "@N/A") {
		t.Errorf("missing username placeholder:\n%s", text)
	}
	if !strings.Contains(text, "No active OTP") {
		t.Errorf("missing no-active status:\n%s", text)
	}
}

func TestStatsTextExpired(t *testing.T) {
	st := otp.UserStats{
		User:    otp.User{FirstName: "A", RegisteredAt: time.Now(), OTPCount: 1},
		Expired: true,
	}
	if text := statsText(st, 5); !strings.Contains(text, "Expired ❌") {
		t.Errorf("missing expired status:\n%s", text)
	}
}

func TestServicesText(t *testing.T) {
	text := servicesText(testCatalog())
	for _, want := range []string{
		"*Email Verification*", "*2FA Login*", "*Password Reset*",
		"*Transaction Verification*", "*Account Security*",
		"`login_2fa`", "• Expiry: 3 minutes", "• Expiry: 10 minutes",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("servicesText missing %q", want)
		}
	}
}

func TestServicePickerKeyboard(t *testing.T) {
	markup := servicePickerKeyboard(testCatalog())
	// Five services plus the back button, one per row.
	if got := len(markup.InlineKeyboard); got != 6 {
		t.Fatalf("picker rows = %d, want 6", got)
	}
	last := markup.InlineKeyboard[5][0]
	if !strings.Contains(last.Text, "Back to Main") {
		t.Fatalf("last row = %q, want back button", last.Text)
	}
}

func TestVerifyFailedText(t *testing.T) {
	if text := verifyFailedText(otp.VerifyExpired); !strings.Contains(text, "expired") {
		t.Errorf("expired reason missing:\n%s", text)
	}
	if text := verifyFailedText(otp.VerifyInvalid); !strings.Contains(text, "invalid") {
		t.Errorf("invalid reason missing:\n%s", text)
	}
}

func TestWelcomeText(t *testing.T) {
	text := welcomeText("Ann")
	if !strings.Contains(text, "Hello Ann!") {
		t.Errorf("welcomeText missing greeting:\n%s", text)
	}
	for _, cmd := range []string{"/start", "/generate", "/verify", "/services", "/stats", "/help"} {
		if !strings.Contains(text, cmd) {
			t.Errorf("welcomeText missing %s", cmd)
		}
	}
}
