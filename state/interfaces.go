// state/interfaces.go
package state

// Player defines the minimal interface for whoever sends actions to a state.
type Player interface {
	GetID() string
}
