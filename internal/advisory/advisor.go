// Package advisory coordinates champion recommendation requests against a
// fast-moving draft.
package advisory

import (
	"context"
	"errors"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/identity"
)

// ErrUnavailable is returned when no advisory service is configured.
var ErrUnavailable = errors.New("advisory service is not available")

// Request is what the advisory service scores.
type Request struct {
	Snapshot *draft.Snapshot `json:"snapshot"`
	TopK     int             `json:"top_k"`
	Role     identity.Role   `json:"role,omitempty"`
}

// Suggestion is one ranked champion.
type Suggestion struct {
	ChampionID draft.ChampionID `json:"champion_id"`
	Score      float64          `json:"score"`
}

// Result is a scored response.
type Result struct {
	Suggestions    []Suggestion `json:"suggestions"`
	WinProbability float64      `json:"win_probability"`
}

// Advisor scores a draft. Implementations must honour ctx cancellation.
type Advisor interface {
	Advise(ctx context.Context, req Request) (*Result, error)
}

// NoopAdvisor is used when no advisory service is configured.
type NoopAdvisor struct{}

// Advise always fails with ErrUnavailable.
func (NoopAdvisor) Advise(context.Context, Request) (*Result, error) {
	return nil, ErrUnavailable
}

// AdvisorFunc adapts a function to the Advisor interface.
type AdvisorFunc func(ctx context.Context, req Request) (*Result, error)

// Advise calls f.
func (f AdvisorFunc) Advise(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}
