// internal/gate/extract.go
package gate

import (
	"net/url"
	"strings"
)

// ExtractSessionID pulls the session identifier out of a URL. Two sources
// are tried in fixed priority order: the query string, then a query string
// embedded in the fragment ("#section?session_id=abc", the form some
// provider redirects produce when a hash route is in play).
func ExtractSessionID(rawURL, param string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	if id := u.Query().Get(param); id != "" {
		return id, true
	}

	if idx := strings.Index(u.Fragment, "?"); idx >= 0 {
		values, err := url.ParseQuery(u.Fragment[idx+1:])
		if err == nil {
			if id := values.Get(param); id != "" {
				return id, true
			}
		}
	}

	return "", false
}

// ScrubURL removes the session parameter from both the query string and a
// fragment-embedded query string, preserving the rest of the URL. The gate
// redirects to the scrubbed form so the identifier never survives in the
// visible location.
func ScrubURL(rawURL, param string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	q.Del(param)
	u.RawQuery = q.Encode()

	if idx := strings.Index(u.Fragment, "?"); idx >= 0 {
		head := u.Fragment[:idx]
		values, err := url.ParseQuery(u.Fragment[idx+1:])
		if err == nil {
			values.Del(param)
			if len(values) == 0 {
				u.Fragment = head
			} else {
				u.Fragment = head + "?" + values.Encode()
			}
			u.RawFragment = ""
		}
	}

	return u.String()
}
