package progress

// LevelForXP maps lifetime XP to a display level. Level thresholds grow
// linearly: reaching level n+1 costs 100*n XP more than level n, so early
// levels come fast and later ones take sustained practice.
func LevelForXP(xp int64) int {
	level := 1
	var threshold int64
	step := int64(100)
	for {
		threshold += step
		if xp < threshold {
			return level
		}
		level++
		step += 100
	}
}

// XPToNextLevel returns how much XP remains until the next level.
func XPToNextLevel(xp int64) int64 {
	var threshold int64
	step := int64(100)
	for {
		threshold += step
		if xp < threshold {
			return threshold - xp
		}
		step += 100
	}
}
