// Package world implements the state engine of the Secret Forest: the
// event ingestion transaction, the mood-adjusted strength model and the
// read-only projections clients consume.
package world

import (
	"math"

	"github.com/secretforest/secretforest/internal/core"
)

// DisplayStrength derives the mood-adjusted strength of a relationship
// from its persisted base strength and the current moods of its two
// endpoints. It is total and deterministic: unknown moods count as
// neutral, and the result is always in [0,100].
//
// The base strength is never mutated here; display strength is
// re-derived on every read so history survives mood swings.
func DisplayStrength(base int, from, to core.Mood, kind core.RelationKind) int {
	avg := roundHalfUp(float64(from.Impact()+to.Impact()) / 2)

	// Tension feeds on bad moods: the mood average works against the
	// bond instead of for it.
	if kind == core.RelationTension {
		return core.ClampStrength(base - avg)
	}
	return core.ClampStrength(base + avg)
}

// roundHalfUp rounds to the nearest integer with halves going up, so
// -0.5 rounds to 0 and 0.5 rounds to 1.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
