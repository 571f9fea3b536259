package keyboard

import "testing"

func TestInlineButtonsOnePerRow(t *testing.T) {
	markup := InlineButtons([]InlineBtn{
		{Text: "Generate", Unique: "generate"},
		{Text: "Verify", Unique: "verify"},
	})
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.InlineKeyboard))
	}
	for i, row := range markup.InlineKeyboard {
		if len(row) != 1 {
			t.Fatalf("row %d has %d buttons, want 1", i, len(row))
		}
	}
	if markup.InlineKeyboard[0][0].Text != "Generate" {
		t.Errorf("first button text = %q", markup.InlineKeyboard[0][0].Text)
	}
}

func TestInlineButtonsNPerRow(t *testing.T) {
	buttons := []InlineBtn{
		{Text: "a", Unique: "a"},
		{Text: "b", Unique: "b"},
		{Text: "c", Unique: "c"},
	}
	markup := InlineButtonsNPerRow(buttons, 2)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.InlineKeyboard))
	}
	if len(markup.InlineKeyboard[0]) != 2 || len(markup.InlineKeyboard[1]) != 1 {
		t.Fatalf("row sizes = %d,%d", len(markup.InlineKeyboard[0]), len(markup.InlineKeyboard[1]))
	}
}
