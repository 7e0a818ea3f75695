package services

import "outreach/internal/textutil"

// MaxMessageRunes bounds error messages and notes written to the store.
const MaxMessageRunes = 500

// Truncate shortens msg to MaxMessageRunes runes.
func Truncate(msg string) string {
	return textutil.Truncate(msg, MaxMessageRunes)
}

// ErrorMessage renders err for storage, truncated to MaxMessageRunes.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return Truncate(err.Error())
}
