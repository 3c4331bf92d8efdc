package utils

import "math"

// MaxLevel caps avatar progression. XP keeps accumulating past it but the
// level never advances beyond this.
const MaxLevel = 100

// RequiredXP returns the XP needed to advance from the given level to the next:
// floor(100 * 1.05^(level-1)).
func RequiredXP(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(100 * math.Pow(1.05, float64(level-1))))
}

// LevelFromTotalXP maps cumulative XP to the current level by greedily
// subtracting RequiredXP starting at level 1. Returns the level, the XP
// accumulated inside that level, and the XP required to leave it.
func LevelFromTotalXP(totalXP int) (level, xpIntoLevel, xpForNextLevel int) {
	if totalXP < 0 {
		totalXP = 0
	}
	level = 1
	remaining := totalXP
	for level < MaxLevel && remaining >= RequiredXP(level) {
		remaining -= RequiredXP(level)
		level++
	}
	return level, remaining, RequiredXP(level)
}
