package state

import (
	"errors"
	"sync"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(fromID string, toID string, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	OnUpdate()
	GetID() string
	HandleAction(player Player, actionData []byte) error
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 基础状态机实现
//
// Once any transition is registered from a state, only registered targets are
// reachable from it, and only while their condition (if any) holds. States
// with no registered transitions may move anywhere.
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

// ChangeState swaps the current state. OnExit and OnEnter run after the lock
// is released, so hooks may read the machine.
func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	// 检查是否有转换条件
	if conditions, exists := sm.transitions[currentID]; exists {
		condition, allowed := conditions[newID]
		if !allowed || (condition != nil && !condition()) {
			sm.mutex.Unlock()
			return ErrTransitionNotAllowed
		}
	}

	oldState := sm.currentState
	sm.currentState = newState
	sm.mutex.Unlock()

	oldState.OnExit()
	newState.OnEnter()
	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

// CanTransition reports whether ChangeState to toID would currently be allowed.
func (sm *BaseStateMachine) CanTransition(toID string) bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	conditions, exists := sm.transitions[sm.currentState.GetID()]
	if !exists {
		return true
	}
	condition, allowed := conditions[toID]
	return allowed && (condition == nil || condition())
}

func (sm *BaseStateMachine) AddTransition(fromID string, toID string, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// StateBase gives states no-op hooks; concrete states override what they need.
type StateBase struct {
	ID string
}

func (s *StateBase) GetID() string {
	return s.ID
}

func (s *StateBase) OnEnter() {
	// 默认实现
}

func (s *StateBase) OnExit() {
	// 默认实现
}

func (s *StateBase) OnUpdate() {
	// 默认实现
}

func (s *StateBase) HandleAction(player Player, actionData []byte) error {
	// 默认实现，具体状态可以覆盖此方法
	return nil
}
