// Package crm tracks customers through the sales pipeline. Record
// persistence semantics belong to the external CRM; this package owns only
// the quote-driven stage progression rules.
package crm

// Pipeline stages, in progression order.
const (
	StageQuoted      = "QUOTED"
	StageNegotiating = "NEGOTIATING"
	StageBooked      = "BOOKED"
	StageTravelled   = "TRAVELLED"
	StageLost        = "LOST"
)

// stageRank orders stages so progression can refuse to move backwards.
// LOST sits outside the forward path and is never set by this subsystem.
var stageRank = map[string]int{
	StageQuoted:      1,
	StageNegotiating: 2,
	StageBooked:      3,
	StageTravelled:   4,
}

// IsKnownStage reports whether the stage is part of the forward pipeline.
func IsKnownStage(stage string) bool {
	_, ok := stageRank[stage]
	return ok
}

// isForward reports whether moving from one stage to another advances the
// pipeline.
func isForward(from, to string) bool {
	fromRank, ok := stageRank[from]
	if !ok {
		return true
	}
	toRank, ok := stageRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
