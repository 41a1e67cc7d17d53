package service

// Ambassadorial titles by lifetime pledged amount, in cents.
const (
	CentsAmbassadorAtLarge = 5_000_000 // 50,000.00
	CentsGrandAmbassador   = 1_000_000
	CentsAmbassador        = 100_000
	CentsPatron            = 10_000
)

// Weekly activity labels by XP earned in the last 7 days.
const (
	WeeklyOnFire   = 5000
	WeeklyTrending = 1000
	WeeklyActive   = 100
)

// AmbassadorTitle names a donor by how much they have pledged overall.
func AmbassadorTitle(totalPledgedCents int64) string {
	switch {
	case totalPledgedCents >= CentsAmbassadorAtLarge:
		return "Ambassador-at-Large"
	case totalPledgedCents >= CentsGrandAmbassador:
		return "Grand Ambassador"
	case totalPledgedCents >= CentsAmbassador:
		return "Ambassador"
	case totalPledgedCents >= CentsPatron:
		return "Patron"
	default:
		return "Supporter"
	}
}

// WeeklyLabel is empty for quiet weeks.
func WeeklyLabel(weeklyXP int64) string {
	switch {
	case weeklyXP >= WeeklyOnFire:
		return "🔥 On Fire!"
	case weeklyXP >= WeeklyTrending:
		return "⚡ Trending"
	case weeklyXP >= WeeklyActive:
		return "📈 Active"
	default:
		return ""
	}
}
