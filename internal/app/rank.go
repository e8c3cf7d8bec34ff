package app

// Rank names, lowest to highest.
const (
	RankNewbie      = "Newbie"
	RankApprentice  = "Apprentice"
	RankProPlayer   = "Pro Player"
	RankMaster      = "Master"
	RankGrandmaster = "Grandmaster"
)

// RankFor maps a user's total score across all categories to a rank title.
func RankFor(totalScore int) string {
	switch {
	case totalScore >= 2000:
		return RankGrandmaster
	case totalScore >= 1000:
		return RankMaster
	case totalScore >= 500:
		return RankProPlayer
	case totalScore >= 100:
		return RankApprentice
	default:
		return RankNewbie
	}
}
