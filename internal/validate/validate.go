package validate

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)
)

const (
	maxTitle       = 64
	maxDescription = 2000
	maxImageURL    = 500
)

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Password enforces the accepted length window. Counted in characters.
func Password(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 8 && n <= 64
}

// Title is required, trimmed and capped.
func Title(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && utf8.RuneCountInString(s) <= maxTitle
}

func Description(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && utf8.RuneCountInString(s) <= maxDescription
}

// ImageURL accepts absolute http(s) URLs only.
func ImageURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxImageURL {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return s, true
}

// ID parses a positive numeric resource id from a path segment.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
