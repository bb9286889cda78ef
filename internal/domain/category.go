package domain

// PostingCategory is the recency bucket of a posting.
type PostingCategory string

const (
	CategoryToday               PostingCategory = "Posted Today"
	CategoryYesterday           PostingCategory = "Posted Yesterday"
	CategoryTwoDaysAgo          PostingCategory = "Posted 2 Days Ago"
	CategoryThreeToSevenDaysAgo PostingCategory = "Posted 3-7 Days Ago"
	CategoryMoreThanWeek        PostingCategory = "Posted More Than 1 Week Ago"
	CategoryUnknown             PostingCategory = "Unknown"
)

// Categories lists every bucket in recency order.
var Categories = []PostingCategory{
	CategoryToday,
	CategoryYesterday,
	CategoryTwoDaysAgo,
	CategoryThreeToSevenDaysAgo,
	CategoryMoreThanWeek,
	CategoryUnknown,
}

// CategoryForDays maps days since posting to its bucket. Negative input is treated as today.
func CategoryForDays(days int) PostingCategory {
	switch {
	case days <= 0:
		return CategoryToday
	case days == 1:
		return CategoryYesterday
	case days == 2:
		return CategoryTwoDaysAgo
	case days <= 7:
		return CategoryThreeToSevenDaysAgo
	default:
		return CategoryMoreThanWeek
	}
}
