package envdetect

import (
	"net/url"
	"strings"
)

// urlParts are the lowercased raw components of a URL used for matching.
// A malformed component does not affect the others. Only an unbalanced IPv6
// bracket in the host yields empty parts.
type urlParts struct {
	scheme   string
	host     string
	path     string
	fragment string
}

func isSchemeChar(c byte, first bool) bool {
	switch {
	case 'a' <= c && c <= 'z':
		return true
	case first:
		return false
	case '0' <= c && c <= '9', c == '+', c == '-', c == '.':
		return true
	}

	return false
}

// splitScheme cuts `scheme:` off the front of rawURL if it has one
func splitScheme(rawURL string) (string, string) {
	i := strings.IndexByte(rawURL, ':')
	if i <= 0 {
		return "", rawURL
	}

	for j := 0; j < i; j++ {
		if !isSchemeChar(rawURL[j], j == 0) {
			return "", rawURL
		}
	}

	return rawURL[:i], rawURL[i+1:]
}

func splitURL(rawURL string) urlParts {
	rest := strings.ToLower(strings.TrimSpace(rawURL))
	rest = strings.NewReplacer("\t", "", "\r", "", "\n", "").Replace(rest)

	var parts urlParts
	parts.scheme, rest = splitScheme(rest)

	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		parts.host, rest = rest[:end], rest[end:]

		if strings.Contains(parts.host, "[") != strings.Contains(parts.host, "]") {
			return urlParts{}
		}
	}

	rest, parts.fragment, _ = strings.Cut(rest, "#")
	parts.path, _, _ = strings.Cut(rest, "?")

	return parts
}

func (p urlParts) text() string {
	return p.host + p.path + p.fragment
}

func (p urlParts) containsAny(words []string) (string, bool) {
	for _, word := range words {
		if strings.Contains(p.host, word) || strings.Contains(p.path, word) || strings.Contains(p.fragment, word) {
			return word, true
		}
	}

	return "", false
}

// origin is the scheme and host to address API probes at, nil if the URL has no host
func (p urlParts) origin() *url.URL {
	host := p.host
	if i := strings.LastIndexByte(host, '@'); i >= 0 {
		host = host[i+1:]
	}
	if host == "" {
		return nil
	}

	scheme := p.scheme
	if scheme == "" {
		scheme = "https"
	}

	return &url.URL{
		Scheme: scheme,
		Host:   host,
	}
}
