package models

// Tier is a display bucket for a round's correct-selection count.
type Tier string

const (
	TierPerfect Tier = "perfect"
	TierGood    Tier = "good"
	TierPoor    Tier = "poor"
)

// TierFor buckets a correct count: 5 is perfect, 3-4 good, anything lower poor.
func TierFor(correct int) Tier {
	switch {
	case correct >= ObjectsPerList:
		return TierPerfect
	case correct >= 3:
		return TierGood
	default:
		return TierPoor
	}
}

// Title is the results heading shown for the tier.
func (t Tier) Title(demo bool) string {
	switch t {
	case TierPerfect:
		if demo {
			return "Demo Complete!"
		}
		return "Perfect Round!"
	case TierGood:
		return "Good Job!"
	default:
		return "Keep Trying!"
	}
}

// RoundResult 单回合结果
type RoundResult struct {
	Round      int      `json:"round"`
	Correct    []string `json:"correct"`
	Incorrect  []string `json:"incorrect"`
	Missed     []string `json:"missed"`
	RoundScore int      `json:"round_score"`
	Tier       Tier     `json:"tier"`
	Title      string   `json:"title"`
	Demo       bool     `json:"demo"`
	Score      int      `json:"score"`
	Lives      int      `json:"lives"`
	LifeLost   bool     `json:"life_lost"`
}

// GameOverSummary 游戏结束统计
type GameOverSummary struct {
	FinalScore      int `json:"final_score"`
	RoundsCompleted int `json:"rounds_completed"`
	AccuracyPercent int `json:"accuracy_percent"`
}
