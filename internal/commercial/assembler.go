/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package commercial

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrBreakCount is returned when fewer than one break is requested. A block
// always gets at least one break so its airtime never runs dry.
var ErrBreakCount = errors.New("break count must be at least one")

// Assembler splits a block's commercial budget across its breaks.
type Assembler struct {
	filler *Filler
	logger zerolog.Logger
}

// NewAssembler creates an assembler around filler.
func NewAssembler(filler *Filler, logger zerolog.Logger) *Assembler {
	return &Assembler{filler: filler, logger: logger.With().Str("component", "assembler").Logger()}
}

// Assemble fills count breaks of budget/count each, in creation order.
//
// All breaks draw from the same pool, which shrinks as spots are accepted, so
// a spot airs at most once per block. The caller keeps ownership of pool and
// may inspect what is left afterwards. A zero or negative budget is passed
// through; the filler still puts at least one spot in each break when the
// pool allows.
func (a *Assembler) Assemble(count int, budget time.Duration, pool *Pool) ([]Break, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrBreakCount, count)
	}

	// TODO: vary break lengths instead of an even split.
	perBreak := budget / time.Duration(count)

	breaks := make([]Break, 0, count)
	for i := 0; i < count; i++ {
		br := a.filler.Fill(perBreak, pool)
		breaks = append(breaks, br)

		a.logger.Debug().
			Int("break", i).
			Dur("target", br.Target).
			Dur("filled", br.Filled).
			Int("spots", len(br.Spots)).
			Bool("exhausted", br.Exhausted).
			Int("pool_left", pool.Len()).
			Msg("break filled")
	}

	return breaks, nil
}
