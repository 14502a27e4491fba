package generator

import (
	"fmt"

	"github.com/harrison/binmeta/internal/clock"
	"github.com/harrison/binmeta/internal/formatter"
	"github.com/harrison/binmeta/internal/vault"
)

// ConflictLayout is the moment layout of the timestamp in a conflict prefix.
const ConflictLayout = "YYYY-MM-DD-hh-mm-ss"

// NameResolver makes a metadata note name unique within its folder.
type NameResolver struct {
	vault vault.Vault
	clock clock.Clock
}

// NewNameResolver creates a resolver checking collisions against v.
func NewNameResolver(v vault.Vault, clk clock.Clock) *NameResolver {
	if clk == nil {
		clk = clock.Real{}
	}
	return &NameResolver{vault: v, clock: clk}
}

// Resolve returns candidate unchanged when folder/candidate is free, and
// "CONFLICT-<timestamp>-<candidate>" otherwise. The prefixed name is not
// checked again, so two collisions within the same second produce the
// same name and the second Create fails.
func (r *NameResolver) Resolve(candidate, folder string) (string, error) {
	taken, err := r.vault.Exists(vault.Join(folder, candidate))
	if err != nil {
		return "", fmt.Errorf("check %s: %w", candidate, err)
	}
	if !taken {
		return candidate, nil
	}
	return fmt.Sprintf("CONFLICT-%s-%s", formatter.FormatDate(r.clock.Now(), ConflictLayout), candidate), nil
}
