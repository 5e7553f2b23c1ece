// Package simsystems implements the per-tick simulation systems run by a
// started lobby's world, in the order spec.md §4.5's start-game procedure
// lists them: input, movement, attraction, shooting, spawn-wave,
// collision, health, snapshot.
package simsystems

// Difficulty scales enemy hp/velocity at wave-spawn time.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyExpert
)

// ParseDifficulty maps a set_difficulty wire value to a Difficulty,
// defaulting to DifficultyMedium for anything unrecognized.
func ParseDifficulty(s string) Difficulty {
	switch s {
	case "easy":
		return DifficultyEasy
	case "expert":
		return DifficultyExpert
	default:
		return DifficultyMedium
	}
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyExpert:
		return "expert"
	default:
		return "medium"
	}
}

// HPScale and VelocityScale are applied to an EnemyConfig's base hp and
// velocity at spawn time.
func (d Difficulty) HPScale() float64 {
	switch d {
	case DifficultyEasy:
		return 0.75
	case DifficultyExpert:
		return 1.5
	default:
		return 1.0
	}
}

func (d Difficulty) VelocityScale() float64 {
	switch d {
	case DifficultyEasy:
		return 0.85
	case DifficultyExpert:
		return 1.35
	default:
		return 1.0
	}
}
