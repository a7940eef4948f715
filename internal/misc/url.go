package misc

import "net/url"

// IsURL reports whether s is an absolute URL, i.e. has both a scheme and a host.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
