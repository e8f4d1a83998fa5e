package notify

import (
	"net/url"
	"strings"
)

// WhatsAppLink builds a wa.me deep link that opens a chat with number
// prefilled with text. Non-digits in number are dropped. Returns "" when
// number has no digits.
func WhatsAppLink(number, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return ""
	}
	link := "https://wa.me/" + digits
	if text != "" {
		link += "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	}
	return link
}
