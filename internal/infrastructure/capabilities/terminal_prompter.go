package capabilities

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/mlang-dev/mlc/internal/domain/capabilities"
)

// TerminalPrompter asks the user whether to grant a capability token.
type TerminalPrompter struct{}

// NewTerminalPrompter creates a prompter.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{}
}

// IsInteractive reports whether stdin is a terminal. Without one, missing
// grants fail instead of hanging on a prompt.
func (p *TerminalPrompter) IsInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// PromptForToken asks about one token. always means the decision should be
// persisted.
func (p *TerminalPrompter) PromptForToken(tok capabilities.Token) (granted bool, always bool, err error) {
	var choice string
	sel := huh.NewSelect[string]().
		Title(fmt.Sprintf("Program requests capability: %s", describeToken(tok))).
		Options(
			huh.NewOption("Allow once", "once"),
			huh.NewOption("Allow and remember", "always"),
			huh.NewOption("Deny", "deny"),
		).
		Value(&choice)
	if err := sel.Run(); err != nil {
		return false, false, err
	}
	switch choice {
	case "once":
		return true, false, nil
	case "always":
		return true, true, nil
	default:
		return false, false, nil
	}
}

// FormatNonInteractiveError explains missing grants when no terminal is
// attached.
func (p *TerminalPrompter) FormatNonInteractiveError(missing []capabilities.Token) error {
	msg := "missing capability grants and no terminal to prompt on:"
	for _, tok := range missing {
		msg += "\n  - " + tok.String()
	}
	msg += "\nadd them to the grants file or pass --trust"
	return fmt.Errorf("%s", msg)
}

// describeToken renders a token in terms a user can act on.
func describeToken(tok capabilities.Token) string {
	scope := tok.Pattern()
	if scope == "" {
		scope = "any resource"
	}
	switch tok.Kind() {
	case "fs.read":
		return fmt.Sprintf("read files matching %s", scope)
	case "fs.write":
		return fmt.Sprintf("write files matching %s", scope)
	case "env.read":
		return fmt.Sprintf("read environment variables matching %s", scope)
	case "proc.spawn":
		return "spawn processes"
	case "net.raw":
		return "raw network access"
	default:
		return tok.String()
	}
}
