package service

import "strings"

// Embed colors shared across outbound messages.
const (
	ColorPrimary = 0x5865F2
	ColorSuccess = 0x57F287
	ColorWarning = 0xFEE75C
	ColorError   = 0xED4245
)

// Stars renders a 1-5 rating as filled and empty stars.
func Stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// RatingColor maps a rating to its presentation color band. Presentation
// only, never drives logic.
func RatingColor(rating int) int {
	switch {
	case rating >= 4:
		return ColorSuccess
	case rating == 3:
		return ColorWarning
	default:
		return ColorError
	}
}
