package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/m3rciful/otpbot/bot/otp"
	tg "github.com/m3rciful/otpbot/core/telegram"
	"github.com/m3rciful/otpbot/core/telegram/callbacks"
	"github.com/m3rciful/otpbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/otpbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Handlers wires the session surface to the OTP store. It holds no user or
// OTP state of its own.
type Handlers struct {
	store   *otp.Store
	catalog *otp.Catalog
}

// New builds the session handlers over the store.
func New(store *otp.Store, catalog *otp.Catalog) *Handlers {
	return &Handlers{store: store, catalog: catalog}
}

// Register wires commands, callbacks, and the free-text fallback into the
// registry.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Welcome message and main menu",
	})
	reg.RegisterCommand("/generate", commands.Command{
		Handler:     h.Generate,
		Description: "Generate a new OTP code",
	})
	reg.RegisterCommand("/verify", commands.Command{
		Handler:     h.Verify,
		Description: "Verify an OTP code",
	})
	reg.RegisterCommand("/services", commands.Command{
		Handler:     h.Services,
		Description: "View available services",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     h.Stats,
		Description: "View your OTP statistics",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     h.Help,
		Description: "Get detailed help",
	})
	reg.RegisterCommand("/users", commands.Command{
		Handler:     h.UserCount,
		Description: "Registered user count",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback(cbMain, h.Start)
	_ = reg.RegisterCallback(cbGenerate, h.Generate)
	_ = reg.RegisterCallback(cbVerify, h.Verify)
	_ = reg.RegisterCallback(cbVerifyCurrent, h.VerifyCurrent)
	_ = reg.RegisterCallback(cbStats, h.Stats)
	_ = reg.RegisterCallback(cbServices, h.Services)
	_ = reg.RegisterCallback(cbGenService, h.GenerateFor)

	reg.SetTextFallback(h.Text)
}

func profileFrom(c tele.Context) otp.Profile {
	u := c.Sender()
	if u == nil {
		return otp.Profile{}
	}
	return otp.Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

// Start registers the user on first contact and shows the main menu.
func (h *Handlers) Start(c tele.Context) error {
	user := h.store.Register(profileFrom(c))
	return tghelpers.EditOrSendMD(c, welcomeText(user.FirstName), mainMenuKeyboard())
}

// Generate shows the service picker.
func (h *Handlers) Generate(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, servicePickerText, servicePickerKeyboard(h.catalog))
}

// GenerateFor issues a code for the service carried in the callback payload.
func (h *Handlers) GenerateFor(c tele.Context) error {
	h.store.Register(profileFrom(c))
	serviceID := callbacks.CallbackPayload(c)

	code, err := h.store.Generate(c.Sender().ID, serviceID)
	if err != nil {
		if errors.Is(err, otp.ErrUnknownService) {
			return tghelpers.EditOrSendMD(c, unknownServiceText, backKeyboard())
		}
		return err
	}
	svc, _ := h.catalog.Get(serviceID)
	return tghelpers.EditOrSendMD(c, generatedText(code, svc), generatedKeyboard())
}

// Verify shows the current code and the verification options.
func (h *Handlers) Verify(c tele.Context) error {
	live := h.store.CurrentCode(c.Sender().ID)
	var left time.Duration
	if live != nil {
		left = live.Remaining(time.Now())
	}
	return tghelpers.EditOrSendMD(c, verifyInfoText(live, left), verifyKeyboard())
}

// VerifyCurrent consumes the live code via the "verify current" button.
func (h *Handlers) VerifyCurrent(c tele.Context) error {
	res := h.store.VerifyCurrent(c.Sender().ID)
	switch res.Status {
	case otp.VerifySuccess:
		return tghelpers.EditOrSendMD(c, verifiedText(res.Code, time.Now()), verifiedKeyboard())
	case otp.VerifyNoActiveCode:
		return tghelpers.EditOrSendMD(c, noActiveOTPText, generateOnlyKeyboard())
	default:
		return tghelpers.EditOrSendMD(c, verifyFailedText(res.Status), verifiedKeyboard())
	}
}

// Stats renders counters and the live-code status.
func (h *Handlers) Stats(c tele.Context) error {
	st, err := h.store.Stats(c.Sender().ID)
	if err != nil {
		if errors.Is(err, otp.ErrUnknownUser) {
			// First contact through a deep link; register and retry once.
			h.store.Register(profileFrom(c))
			st, err = h.store.Stats(c.Sender().ID)
		}
		if err != nil {
			return err
		}
	}
	return tghelpers.EditOrSendMD(c, statsText(st, h.catalog.Len()), statsKeyboard())
}

// Services lists the configured catalog.
func (h *Handlers) Services(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, servicesText(h.catalog), backKeyboard())
}

// Help renders the command reference.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.SendMD(c, helpText, backKeyboard())
}

// UserCount reports the number of registered users (admin surface).
func (h *Handlers) UserCount(c tele.Context) error {
	return tghelpers.SendMD(c, userCountText(h.store.Users()))
}

// Text handles free-form input: an exact 6-digit message is a verification
// attempt, everything else gets generic guidance.
func (h *Handlers) Text(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if !isOTPInput(text) {
		return tghelpers.SendMD(c, unknownText)
	}

	res := h.store.Verify(c.Sender().ID, text)
	switch res.Status {
	case otp.VerifySuccess:
		return tghelpers.SendMD(c, textVerifiedText(res.Code, text, time.Now()))
	case otp.VerifyNoActiveCode:
		return tghelpers.SendMD(c, textNoActiveOTP)
	default:
		// Invalid and Expired collapse into one user-facing message.
		return tghelpers.SendMD(c, textInvalidOTP)
	}
}

// isOTPInput reports whether text is exactly six ASCII digits.
func isOTPInput(text string) bool {
	if len(text) != 6 {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return false
		}
	}
	return true
}
