package game

import "github.com/wfunc/flashfive/models"

// Listener receives everything a view needs to render a session. Calls are
// made after the session lock is released, one at a time, in the order the
// session changed. A call may be delivered by a goroutine other than the one
// whose method caused it.
type Listener interface {
	OnPhaseChange(snapshot Snapshot)
	OnImageReady(source string, fallback bool)
	OnTick(remaining int)
	OnSelectionChange(selected []string)
	OnResults(result models.RoundResult)
	OnGameOver(summary models.GameOverSummary)
}

// NopListener ignores every event. Embed it to implement only some callbacks.
type NopListener struct{}

func (NopListener) OnPhaseChange(Snapshot)            {}
func (NopListener) OnImageReady(string, bool)         {}
func (NopListener) OnTick(int)                        {}
func (NopListener) OnSelectionChange([]string)        {}
func (NopListener) OnResults(models.RoundResult)      {}
func (NopListener) OnGameOver(models.GameOverSummary) {}
