// Package alerts decides whether price-target alerts on watchlist entries
// should fire.
//
// Convention: buy-the-dip. An alert fires when the current price falls to
// or below the target price. Once fired it stays quiet until the target is
// changed, which resets the fired flag.
package alerts

import "github.com/foliotrack/foliotrack/internal/domain"

// ShouldFire reports whether a price-target alert should fire for the
// position. All of the following must hold: alerts enabled, not already
// fired, a target price is set, a current price is known, and the current
// price is at or below the target.
func ShouldFire(pos domain.Position) bool {
	return pos.AlertEnabled &&
		!pos.AlertFired &&
		pos.TargetPrice != nil &&
		pos.CurrentPrice.Sign() > 0 &&
		pos.CurrentPrice.LessThanOrEqual(*pos.TargetPrice)
}

// Reset clears the fired flag so the alert can trigger again. Called when
// the target price changes.
func Reset(pos domain.Position) domain.Position {
	pos.AlertFired = false
	return pos
}
