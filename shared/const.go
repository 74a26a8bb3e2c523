package shared

const (
	UserID    = "user_id"
	UserRole  = "user_role"
	AdminName = "admin_name"

	RoleMember = "member"
	RoleAdmin  = "admin"

	GameTandem  = "tandem"
	GameCryptic = "cryptic"
	GameMini    = "mini"
	GameReel    = "reel"
	GameSoup    = "soup"

	BoardDailySpeed = "daily_speed"
	BoardBestStreak = "best_streak"

	HintFodder     = "fodder"
	HintIndicator  = "indicator"
	HintDefinition = "definition"
	HintLetter     = "letter"

	CoopWaiting   = "waiting"
	CoopActive    = "active"
	CoopCompleted = "completed"
	CoopAbandoned = "abandoned"

	TierBuddyPass   = "buddypass"
	TierBestFriends = "bestfriends"
	TierSoulmates   = "soulmates"

	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"

	// Mini crossword block cell marker.
	BlockCell = "■"
)

var Games = []string{GameTandem, GameCryptic, GameMini, GameReel, GameSoup}

func ValidGame(game string) bool {
	for _, g := range Games {
		if g == game {
			return true
		}
	}
	return false
}
