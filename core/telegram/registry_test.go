package telegram

import (
	"testing"

	"github.com/m3rciful/otpbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegisterCommandValidation(t *testing.T) {
	reg := NewRegistry()

	reg.RegisterCommand("/ok", commands.Command{Handler: noop, Description: "ok"})
	reg.RegisterCommand("missing-slash", commands.Command{Handler: noop, Description: "x"})
	reg.RegisterCommand("/nohandler", commands.Command{Description: "x"})
	reg.RegisterCommand("/nodesc", commands.Command{Handler: noop})
	reg.RegisterCommand("/ok", commands.Command{Handler: noop, Description: "duplicate"})

	if got := len(reg.Commands()); got != 1 {
		t.Fatalf("registered %d commands, want 1", got)
	}
	if _, _, ok := reg.LookupCommand("/ok"); !ok {
		t.Fatal("LookupCommand(/ok) not found")
	}
}

func TestListCommandsVisibility(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"})
	reg.RegisterCommand("/users", commands.Command{Handler: noop, Description: "admin", AdminOnly: true})
	reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "hidden", Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("visible = %+v, want only /start", visible)
	}
	if all := reg.ListCommands(false); len(all) != 3 {
		t.Fatalf("all = %d commands, want 3", len(all))
	}
}

func TestLookupCommandAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/generate", commands.Command{
		Handler:     noop,
		Description: "generate",
		Aliases:     []string{"gen"},
	})

	key, _, ok := reg.LookupCommand("/gen")
	if !ok || key != "/generate" {
		t.Fatalf("LookupCommand(/gen) = %q, %v; want /generate", key, ok)
	}
	if key, _, ok := reg.LookupCommand("generate"); !ok || key != "/generate" {
		t.Fatalf("LookupCommand(generate) = %q, %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("/nope"); ok {
		t.Fatal("LookupCommand(/nope) found")
	}
}

func TestRegisterCallback(t *testing.T) {
	reg := NewRegistry()

	if err := reg.RegisterCallback("stats", noop); err != nil {
		t.Fatalf("RegisterCallback: %v", err)
	}
	if err := reg.RegisterCallback("stats", noop); err == nil {
		t.Fatal("duplicate callback registration succeeded")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("empty callback key accepted")
	}
	if err := reg.RegisterCallback("nil", nil); err == nil {
		t.Fatal("nil callback handler accepted")
	}

	if _, ok := reg.GetCallback("stats"); !ok {
		t.Fatal("GetCallback(stats) not found")
	}
	if _, ok := reg.GetCallback("absent"); ok {
		t.Fatal("GetCallback(absent) found")
	}
	if keys := reg.ListCallbacks(); len(keys) != 1 || keys[0] != "stats" {
		t.Fatalf("ListCallbacks = %v", keys)
	}
}

func TestTextFallback(t *testing.T) {
	reg := NewRegistry()
	if reg.TextFallback() != nil {
		t.Fatal("fresh registry has a text fallback")
	}
	reg.SetTextFallback(noop)
	if reg.TextFallback() == nil {
		t.Fatal("SetTextFallback did not take")
	}
}
