package game

import (
	"math"

	"github.com/wfunc/flashfive/models"
)

// PointsPerCorrect is awarded for every correct pick.
const PointsPerCorrect = 2

// LifeLossThreshold: a real-game round with fewer correct picks costs a life.
const LifeLossThreshold = 3

// ScoreRound scores a round with the given number of correct picks. Demo rounds
// are scored and tiered the same way but never cost a life.
func ScoreRound(correct int, demo bool) (roundScore int, tier models.Tier, lifeLost bool) {
	roundScore = correct * PointsPerCorrect
	tier = models.TierFor(correct)
	lifeLost = !demo && correct < LifeLossThreshold
	return
}

// AccuracyPercent rounds correct/total to a whole percent; 0 when nothing was picked.
func AccuracyPercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// partition splits the picks against the category's correct objects. correct and
// incorrect follow pick order, missed follows the category's order.
func partition(selected []string, cat models.Category) (correct, incorrect, missed []string) {
	correct = make([]string, 0, len(selected))
	incorrect = make([]string, 0, len(selected))
	picked := make(map[string]bool, len(selected))
	for _, label := range selected {
		picked[label] = true
		if cat.IsCorrect(label) {
			correct = append(correct, label)
		} else {
			incorrect = append(incorrect, label)
		}
	}
	missed = make([]string, 0, len(cat.CorrectObjects))
	for _, label := range cat.CorrectObjects {
		if !picked[label] {
			missed = append(missed, label)
		}
	}
	return
}
