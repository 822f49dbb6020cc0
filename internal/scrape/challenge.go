package scrape

import (
	"regexp"
	"strings"
)

// challengeMarkers are lowercase substrings whose presence in a page body
// identifies an anti-bot interstitial rather than site content. The list
// covers the vendors seen on the target site plus generic block phrasing.
var challengeMarkers = []string{
	"captcha",
	"recaptcha",
	"hcaptcha",
	"cf-challenge",
	"cloudflare",
	"are you a robot",
	"robot check",
	"security check",
	"unusual traffic",
	"access denied",
	"zostałeś zablokowany",
	"potwierdź, że nie jesteś robotem",
}

// verifyHumanRe catches the "verify you are/you're/that you are ... human"
// family of prompts, which varies too much in wording for a literal marker.
// The span is bounded so unrelated far-apart words cannot pair up.
var verifyHumanRe = regexp.MustCompile(`verify.{0,40}human`)

// IsChallenge inspects a fetched page and reports whether it is an anti-bot
// challenge, together with the marker that triggered detection. A challenged
// page must never be parsed as listing content.
func IsChallenge(p Page) (bool, string) {
	if p.StatusCode == 403 || p.StatusCode == 429 {
		return true, "status:" + statusText(p.StatusCode)
	}
	body := strings.ToLower(string(p.Body))
	for _, marker := range challengeMarkers {
		if strings.Contains(body, marker) {
			return true, "marker:" + marker
		}
	}
	if verifyHumanRe.MatchString(body) {
		return true, "marker:verify-human"
	}
	return false, ""
}

func statusText(code int) string {
	switch code {
	case 403:
		return "403_forbidden"
	case 429:
		return "429_too_many_requests"
	default:
		return "unexpected"
	}
}
