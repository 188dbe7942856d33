package httpapi

import "strings"

// MaskGeminiKey shows the first 4 and last 4 characters.
func MaskGeminiKey(key string) string {
	return maskKey(key, 4)
}

// MaskOpenRouterKey shows the first 6 and last 4 characters, keeping the sk-or- prefix readable.
func MaskOpenRouterKey(key string) string {
	return maskKey(key, 6)
}

// maskKey hides everything between the prefix and the last four characters.
// Keys too short to keep anything hidden are masked completely.
func maskKey(key string, prefix int) string {
	runes := []rune(key)
	if len(runes) == 0 {
		return ""
	}
	if len(runes) <= prefix+4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:prefix]) + strings.Repeat("*", len(runes)-prefix-4) + string(runes[len(runes)-4:])
}
