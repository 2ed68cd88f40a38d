package services

import (
	"fmt"
	"log/slog"

	"github.com/mlang-dev/mlc/internal/domain/capabilities"
	infraCapabilities "github.com/mlang-dev/mlc/internal/infrastructure/capabilities"
)

// Security levels the gatekeeper enforces on broad tokens.
const (
	SecurityStrict     = "strict"
	SecurityStandard   = "standard"
	SecurityPermissive = "permissive"
)

// prompter abstracts the interactive grant prompt so the policy logic is
// testable without a terminal.
type prompter interface {
	IsInteractive() bool
	PromptForToken(tok capabilities.Token) (granted bool, always bool, err error)
	FormatNonInteractiveError(missing []capabilities.Token) error
}

// CapabilityGatekeeper decides which requested tokens a run receives. It is
// the boundary between what a program's manifest asks for and what the user
// actually grants: saved grants are honored, broad tokens are subject to the
// security level, and everything else goes through an interactive prompt.
type CapabilityGatekeeper struct {
	store         *infraCapabilities.FileStore
	prompter      prompter
	securityLevel string
	logger        *slog.Logger
}

// NewCapabilityGatekeeper creates a gatekeeper persisting grants at
// grantsPath. securityLevel is strict, standard, or permissive.
func NewCapabilityGatekeeper(grantsPath, securityLevel string, logger *slog.Logger) *CapabilityGatekeeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &CapabilityGatekeeper{
		store:         infraCapabilities.NewFileStore(grantsPath),
		prompter:      infraCapabilities.NewTerminalPrompter(),
		securityLevel: securityLevel,
		logger:        logger,
	}
}

// GrantTokens resolves the requested tokens against saved grants and policy.
// With trustAll every request is granted without prompting. A denied token
// fails the whole request; partial grants would mask capability errors until
// deep inside a run.
func (g *CapabilityGatekeeper) GrantTokens(requested []capabilities.Token, trustAll bool) ([]capabilities.Token, error) {
	if trustAll {
		g.logger.Warn("granting all requested capabilities without prompting (--trust)")
		return requested, nil
	}

	saved, err := g.store.Load()
	if err != nil {
		return nil, err
	}

	var missing []capabilities.Token
	granted := make([]capabilities.Token, 0, len(requested))
	for _, req := range requested {
		if containsToken(saved, req) {
			granted = append(granted, req)
			continue
		}
		missing = append(missing, req)
	}
	if len(missing) == 0 {
		return granted, nil
	}

	// Strict policy rejects broad tokens before any prompt.
	if g.securityLevel == SecurityStrict {
		for _, tok := range missing {
			if tok.IsBroad() {
				g.logger.Error("broad capability denied by security policy",
					"token", tok.String(), "level", g.securityLevel)
				return nil, fmt.Errorf("security level %s denies broad capability %s", g.securityLevel, tok)
			}
		}
	}

	// Permissive policy auto-grants anything narrow.
	if g.securityLevel == SecurityPermissive {
		var stillMissing []capabilities.Token
		for _, tok := range missing {
			if tok.IsBroad() {
				stillMissing = append(stillMissing, tok)
				continue
			}
			granted = append(granted, tok)
		}
		missing = stillMissing
		if len(missing) == 0 {
			return granted, nil
		}
	}

	if !g.prompter.IsInteractive() {
		return nil, g.prompter.FormatNonInteractiveError(missing)
	}

	persist := false
	newSaved := saved
	for _, tok := range missing {
		ok, always, err := g.prompter.PromptForToken(tok)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("capability denied by user: %s", tok)
		}
		granted = append(granted, tok)
		if always {
			newSaved = append(newSaved, tok)
			persist = true
		}
	}

	if persist {
		if err := g.store.Save(newSaved); err != nil {
			g.logger.Warn("failed to persist grants", "path", g.store.Path(), "error", err)
		} else {
			g.logger.Info("grants saved", "path", g.store.Path())
		}
	}
	return granted, nil
}

func containsToken(haystack []capabilities.Token, needle capabilities.Token) bool {
	for _, tok := range haystack {
		if tok.Equals(needle) {
			return true
		}
	}
	return false
}
