package util

import (
	"net/url"
	"strings"
)

// IsLocalRedirect reports whether target is a same-origin path that is safe
// to redirect to after login. Absolute URLs, protocol-relative URLs and
// backslash tricks are rejected.
func IsLocalRedirect(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") {
		return false
	}
	if strings.ContainsAny(target, "\r\n\\") {
		return false
	}
	if strings.HasPrefix(target, "//") {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// LocalRedirectOr returns target when it is a local path and fallback otherwise.
func LocalRedirectOr(target, fallback string) string {
	if IsLocalRedirect(target) {
		return target
	}
	return fallback
}
