package game

import (
	"encoding/json"
	"fmt"

	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/state"
)

// Client action types.
const (
	ActionStartDemo    = "start_demo"
	ActionStartGame    = "start_game"
	ActionToggleSelect = "toggle_select"
	ActionSubmit       = "submit"
	ActionNextRound    = "next_round"
	ActionRestart      = "restart"
)

// Action represents a player action that can be unmarshalled from a packet.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
}

type phaseBase struct {
	state.StateBase
	session *Session
}

func newPhaseBase(p Phase, s *Session) phaseBase {
	return phaseBase{StateBase: state.StateBase{ID: string(p)}, session: s}
}

func (p *phaseBase) decode(actionData []byte) (Action, error) {
	var action Action
	if err := json.Unmarshal(actionData, &action); err != nil {
		return action, fmt.Errorf("failed to unmarshal action data: %w", err)
	}
	return action, nil
}

// handleCommon covers actions valid in every phase.
func (p *phaseBase) handleCommon(player state.Player, action Action) error {
	switch action.Type {
	case ActionRestart:
		logger.Log.Infof("Player %s restarted session %s", player.GetID(), p.session.ID)
		return p.session.Restart()
	default:
		return fmt.Errorf("%w: action %q during %s", ErrInvalidState, action.Type, p.ID)
	}
}

// WelcomeState 欢迎界面，等待开始演示或正式游戏
type WelcomeState struct {
	phaseBase
}

func (s *WelcomeState) OnEnter() {
	s.session.resetLocked()
}

func (s *WelcomeState) HandleAction(player state.Player, actionData []byte) error {
	action, err := s.decode(actionData)
	if err != nil {
		return err
	}
	switch action.Type {
	case ActionStartDemo:
		return s.session.StartSession(true)
	case ActionStartGame:
		return s.session.StartSession(false)
	}
	return s.handleCommon(player, action)
}

// MemorizationState 记忆阶段：加载图片后倒计时
type MemorizationState struct {
	phaseBase
}

func (s *MemorizationState) OnEnter() {
	sess := s.session
	sess.imageSource = sess.current.ImageSource()
	sess.imageFallback = false
	sess.imageReady = false
}

func (s *MemorizationState) OnExit() {
	s.session.countdown.Stop()
}

func (s *MemorizationState) HandleAction(player state.Player, actionData []byte) error {
	action, err := s.decode(actionData)
	if err != nil {
		return err
	}
	return s.handleCommon(player, action)
}

// TestingState 选择阶段：从十个选项中选出五个
type TestingState struct {
	phaseBase
}

func (s *TestingState) OnEnter() {
	s.session.prepareChoicesLocked()
}

func (s *TestingState) HandleAction(player state.Player, actionData []byte) error {
	action, err := s.decode(actionData)
	if err != nil {
		return err
	}
	switch action.Type {
	case ActionToggleSelect:
		_, err := s.session.ToggleSelect(action.Label)
		return err
	case ActionSubmit:
		return s.session.SubmitAnswers()
	}
	return s.handleCommon(player, action)
}

// ResultsState 回合结算
type ResultsState struct {
	phaseBase
}

func (s *ResultsState) OnEnter() {
	s.session.scoreRoundLocked()
}

func (s *ResultsState) HandleAction(player state.Player, actionData []byte) error {
	action, err := s.decode(actionData)
	if err != nil {
		return err
	}
	switch action.Type {
	case ActionNextRound:
		return s.session.Advance()
	case ActionStartGame:
		return s.session.StartSession(false)
	}
	return s.handleCommon(player, action)
}

// GameOverState 游戏结束
type GameOverState struct {
	phaseBase
}

func (s *GameOverState) OnEnter() {
	s.session.gameOverLocked()
}

func (s *GameOverState) HandleAction(player state.Player, actionData []byte) error {
	action, err := s.decode(actionData)
	if err != nil {
		return err
	}
	switch action.Type {
	case ActionStartGame:
		return s.session.StartSession(false)
	case ActionStartDemo:
		return s.session.StartSession(true)
	}
	return s.handleCommon(player, action)
}
