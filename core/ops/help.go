package ops

import (
	"context"
	"strings"
)

// DefaultHandle is the bot username used when none is known.
const DefaultHandle = "cryptorates_bot"

// HelpText is the reply to /start and /help.
func HelpText(handle string) string {
	handle = strings.TrimPrefix(handle, "@")
	if handle == "" {
		handle = DefaultHandle
	}
	return "This bot is intended to be used in inline mode, just type @" + handle + " in any chat."
}

// HelpOp answers a command with the inline-mode help text.
type HelpOp struct {
	name string
	desc string
	text string
}

// NewStartOp returns the /start command.
func NewStartOp(handle string) *HelpOp {
	return &HelpOp{name: "start", desc: "Show how to use the bot", text: HelpText(handle)}
}

// NewHelpOp returns the /help command.
func NewHelpOp(handle string) *HelpOp {
	return &HelpOp{name: "help", desc: "Show how to use the bot", text: HelpText(handle)}
}

func (h *HelpOp) Name() string { return h.name }
func (h *HelpOp) Description() string { return h.desc }

// Direct reports that help is sent privately to the user who asked.
func (h *HelpOp) Direct() bool { return true }

func (h *HelpOp) Execute(_ context.Context, _ string) (string, error) {
	return h.text, nil
}
