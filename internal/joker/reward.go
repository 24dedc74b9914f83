package joker

// RewardCount is the number of joker charges a correct answer earns: three
// for a question above the player's level, two at it, one below.
func RewardCount(themeLevel, playerLevel int) int {
	switch {
	case themeLevel > playerLevel:
		return 3
	case themeLevel == playerLevel:
		return 2
	default:
		return 1
	}
}

// Reward draws RewardCount kinds uniformly, with repetition.
func Reward(themeLevel, playerLevel int, rnd Rand) []Kind {
	kinds := Kinds()
	n := RewardCount(themeLevel, playerLevel)
	out := make([]Kind, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, kinds[rnd.Intn(len(kinds))])
	}
	return out
}
