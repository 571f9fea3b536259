package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/otpbot/bot/otp"
	"github.com/m3rciful/otpbot/core/telegram/format"
	tghelpers "github.com/m3rciful/otpbot/core/telegram/helpers"
	"github.com/m3rciful/otpbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Callback keys. The service picker carries the service id as payload
// under the single "gen" key.
const (
	cbMain          = "main"
	cbGenerate      = "generate"
	cbVerify        = "verify"
	cbVerifyCurrent = "verify_current"
	cbStats         = "stats"
	cbServices      = "services"
	cbGenService    = "gen"
)

func mainMenuKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🔑 Generate OTP", Unique: cbGenerate},
		{Text: "✅ Verify OTP", Unique: cbVerify},
		{Text: "📊 My Stats", Unique: cbStats},
		{Text: "🛠️ Services", Unique: cbServices},
	})
}

func servicePickerKeyboard(catalog *otp.Catalog) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, catalog.Len()+1)
	for _, svc := range catalog.List() {
		btns = append(btns, keyboard.InlineBtn{
			Text:   "🔐 " + svc.Name,
			Unique: cbGenService,
			Data:   svc.ID,
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: "🔙 Back to Main", Unique: cbMain})
	return keyboard.InlineButtons(btns)
}

func generatedKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "✅ Verify This OTP", Unique: cbVerifyCurrent},
		{Text: "🔄 Generate New OTP", Unique: cbGenerate},
		{Text: "🔙 Back to Main", Unique: cbMain},
	})
}

func verifyKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "✅ Verify Current OTP", Unique: cbVerifyCurrent},
		{Text: "🔑 Generate New OTP", Unique: cbGenerate},
		{Text: "🔙 Back to Main", Unique: cbMain},
	})
}

func verifiedKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🔑 Generate New OTP", Unique: cbGenerate},
		{Text: "📊 View Stats", Unique: cbStats},
		{Text: "🔙 Back to Main", Unique: cbMain},
	})
}

func statsKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🔑 Generate OTP", Unique: cbGenerate},
		{Text: "✅ Verify OTP", Unique: cbVerify},
		{Text: "🔙 Back to Main", Unique: cbMain},
	})
}

func backKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🔑 Generate OTP", Unique: cbGenerate},
		{Text: "🔙 Back to Main", Unique: cbMain},
	})
}

func generateOnlyKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🔑 Generate OTP", Unique: cbGenerate},
	})
}

func welcomeText(firstName string) string {
	return fmt.Sprintf(`🔐 *Welcome to OTP Bot!* 🔐

Hello %s! I'm your secure OTP (One-Time Password) generator and verification bot.

*What I can do:*
• Generate secure OTP codes for various services
• Verify OTP codes with expiration
• Track your OTP usage
• Support multiple authentication scenarios

*Commands:*
/start - Show this welcome message
/generate - Generate a new OTP code
/verify - Verify an OTP code
/services - View available services
/stats - View your OTP statistics
/help - Get detailed help

*Quick Start:*
1. Click "Generate OTP" to create a new code
2. Use the code within the time limit
3. Verify it when needed

Let's get started! 🚀`, format.EscapeMarkdown(firstName))
}

const servicePickerText = `🔑 *Select Service for OTP Generation*

Choose the service you want to generate an OTP for:`

func generatedText(code *otp.Code, svc otp.Service) string {
	expirySeconds := int(svc.Expiry / time.Second)
	return fmt.Sprintf(`🔑 *OTP Generated Successfully!*

*Service:* %s
*OTP Code:* `+"`%s`"+`
*Expires in:* %s minutes
*Generated at:* %s

⚠️ *Important:*
• This code is valid for %d minutes only
• Don't share this code with anyone
• Use it only for the intended service

_Tap the code to copy it_`,
		svc.Name,
		code.Value,
		tghelpers.FormatExpiry(expirySeconds),
		tghelpers.FormatClock(code.CreatedAt),
		expirySeconds/60,
	)
}

func verifyInfoText(live *otp.Code, left time.Duration) string {
	var current string
	if live != nil {
		current = fmt.Sprintf("*Current OTP:* `%s`\n*Service:* %s\n*Time Left:* %s",
			live.Value, live.ServiceName, tghelpers.FormatCountdown(left))
	} else {
		current = "❌ *No active OTP* (expired or not generated)"
	}
	return fmt.Sprintf(`🔍 *OTP Verification*

%s

*To verify an OTP:*
1. Make sure you have an active OTP
2. Click "Verify Current OTP" or
3. Type the OTP code directly

*Options:*`, current)
}

func verifiedText(code *otp.Code, at time.Time) string {
	return fmt.Sprintf(`✅ *OTP Verified Successfully!*

*Service:* %s
*OTP Code:* `+"`%s`"+`
*Verified at:* %s

🎉 *Verification Complete!*
Your OTP has been successfully verified and is now used.`,
		code.ServiceName, code.Value, tghelpers.FormatClock(at))
}

const noActiveOTPText = `❌ *No OTP to verify!*

Please generate an OTP first.`

func verifyFailedText(status otp.VerifyStatus) string {
	reason := "OTP is invalid"
	if status == otp.VerifyExpired {
		reason = "OTP has expired"
	}
	return fmt.Sprintf(`❌ *OTP Verification Failed!*

*Reason:* %s

Please generate a new OTP code.`, reason)
}

func statsText(st otp.UserStats, serviceCount int) string {
	u := st.User

	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	name = format.EscapeMarkdown(name)
	username := format.EscapeMarkdown(u.Username)
	if username == "" {
		username = "N/A"
	}

	var live string
	switch {
	case st.Live != nil:
		live = fmt.Sprintf(`*🔄 Current OTP Status:*
• Code: `+"`%s`"+`
• Service: %s
• Time Left: %s
• Status: Active ✅`,
			st.Live.Value, st.Live.ServiceName, tghelpers.FormatCountdown(st.Left))
	case st.Expired:
		live = "*🔄 Current OTP Status:*\n• Status: Expired ❌"
	default:
		live = "*🔄 Current OTP Status:*\n• Status: No active OTP"
	}

	rate := float64(u.VerifiedCount) / float64(max(u.OTPCount, 1)) * 100

	return fmt.Sprintf(`📊 *Your OTP Statistics*

*👤 User Info:*
• Name: %s
• Username: @%s
• Registered: %s

*📈 Usage Stats:*
• Total OTPs Generated: %d
• Total OTPs Verified: %d
• Success Rate: %.1f%%

%s

*🛠️ Available Services:* %d`,
		name, username, tghelpers.FormatDate(u.RegisteredAt),
		u.OTPCount, u.VerifiedCount, rate,
		live, serviceCount)
}

func servicesText(catalog *otp.Catalog) string {
	var b strings.Builder
	b.WriteString("🛠️ *Available OTP Services*\n\nHere are the services you can generate OTPs for:\n")
	for _, svc := range catalog.List() {
		fmt.Fprintf(&b, "\n*%s*\n• Expiry: %d minutes\n• ID: `%s`\n",
			svc.Name, int(svc.Expiry/time.Minute), svc.ID)
	}
	b.WriteString(`
*How to use:*
1. Select "Generate OTP" from the main menu
2. Choose the service you need
3. Use the generated OTP within the time limit
4. Verify when prompted

*Security Features:*
• Time-limited codes
• Single-use verification
• Secure generation algorithm
• Usage tracking`)
	return b.String()
}

const helpText = `🆘 *OTP Bot Help*

*Commands:*
• /start - Welcome message and main menu
• /generate - Generate a new OTP code
• /verify - Verify an OTP code
• /services - View available services
• /stats - View your usage statistics
• /help - Show this help message

*How OTP Generation Works:*
1. Select a service (Email, 2FA, etc.)
2. Bot generates a 6-digit code
3. Code expires after set time
4. Use code for verification

*Security Features:*
• ⏰ Time-limited codes (2-10 minutes)
• 🔒 Single-use verification
• 🛡️ Secure random generation
• 📊 Usage tracking
• 🚫 Automatic expiry

*Tips:*
• Generate OTP only when needed
• Don't share codes with others
• Use codes within expiry time
• Keep track of your usage stats`

const textVerifiedTemplate = `✅ *OTP Verified Successfully!*

*Service:* %s
*Code:* ` + "`%s`" + `
*Verified at:* %s

🎉 Your OTP has been successfully verified!`

const textInvalidOTP = `❌ *Invalid or Expired OTP*

The OTP you entered is either:
• Incorrect
• Expired
• Already used

Please generate a new OTP code.`

const textNoActiveOTP = `❌ *No Active OTP*

You don't have any active OTP to verify.
Please generate an OTP first using /generate`

const unknownText = `🤔 *I didn't understand that*

I can help you with:
• Generate OTP codes
• Verify OTP codes
• View statistics

Use /help for more information or /start for the main menu.`

const unknownServiceText = `❌ *Unknown service*

That service is not configured. Use /services to see what's available.`

func textVerifiedText(code *otp.Code, submitted string, at time.Time) string {
	return fmt.Sprintf(textVerifiedTemplate, code.ServiceName, submitted, tghelpers.FormatClock(at))
}

func userCountText(n int) string {
	return fmt.Sprintf("👥 *Registered users:* %d", n)
}
