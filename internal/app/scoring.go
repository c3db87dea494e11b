package app

import (
	"math"

	"trivia-room-service/internal/domain"
)

const (
	basePoints          = 100
	pointsPerDifficulty = 50
	speedWindowSeconds  = 30
	speedMultiplier     = 2
)

// Points returns the score for a correct answer. timeTaken is client-reported and
// not bounded server-side.
func Points(difficulty int, timeTaken float64) int {
	speed := int(math.Floor((speedWindowSeconds - timeTaken) * speedMultiplier))
	if speed < 0 {
		speed = 0
	}
	return basePoints + (difficulty-1)*pointsPerDifficulty + speed
}

// scoreAnswer validates the submitted choice against the question and returns (correct, points).
func scoreAnswer(q domain.Question, choice *int, timeTaken float64) (bool, int) {
	if choice == nil || *choice != q.Correct {
		return false, 0
	}
	return true, Points(q.Difficulty, timeTaken)
}
