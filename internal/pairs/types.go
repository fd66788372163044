package pairs

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("pair not found")

// Pair is a watched token pair. The monitor recalculates depth for enabled
// pairs in both directions.
type Pair struct {
	InputMint  string    `json:"input_mint"`
	OutputMint string    `json:"output_mint"`
	Label      string    `json:"label"`
	Enabled    bool      `json:"enabled"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ID is the registry key for the pair. Mints are base58 so the separator is
// unambiguous.
func (p *Pair) ID() string {
	return p.InputMint + ":" + p.OutputMint
}
