package indexnow

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Normalizer turns relative paths into absolute URLs on the current site.
type Normalizer struct {
	sites SiteProvider
}

// NewNormalizer creates a Normalizer resolving against sites.
func NewNormalizer(sites SiteProvider) *Normalizer {
	return &Normalizer{sites: sites}
}

// IsAbsolute reports whether raw already carries an http or https scheme.
func IsAbsolute(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// Normalize returns raw unchanged when it is absolute. Otherwise raw is
// resolved against the site origin after stripping its leading slashes, with
// RFC 3986 reference resolution ("." and ".." segments removed). A '%' that
// does not start a valid escape is encoded as "%25". References net/url
// still refuses, such as ones holding control characters, are appended to the
// origin as-is.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (string, error) {
	if IsAbsolute(raw) {
		return raw, nil
	}
	site, err := currentSite(ctx, n.sites)
	if err != nil {
		return "", err
	}
	origin, err := site.BaseURL()
	if err != nil {
		return "", err
	}
	origin = strings.TrimRight(origin, "/") + "/"
	base, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("%w: site origin %q: %w", ErrConfiguration, origin, err)
	}
	trimmed := strings.TrimLeft(raw, "/")
	escaped := escapeStrayPercent(trimmed)
	ref, err := url.Parse(escaped)
	if err != nil {
		// net/url refuses a colon in the first segment of a relative path.
		ref, err = url.Parse("./" + escaped)
	}
	if err != nil {
		return origin + trimmed, nil
	}
	return base.ResolveReference(ref).String(), nil
}

// NormalizeAll normalizes urls in order, stopping at the first failure.
func (n *Normalizer) NormalizeAll(ctx context.Context, urls []string) ([]string, error) {
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		abs, err := n.Normalize(ctx, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

func escapeStrayPercent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}

// hasSchemeAndHost reports whether raw has a scheme and a non-empty
// authority. It is lexical so that references net/url rejects, like bad
// percent escapes in the path, are still judged on their shape alone.
func hasSchemeAndHost(raw string) bool {
	scheme, rest, ok := strings.Cut(raw, ":")
	if !ok || !validScheme(scheme) || !strings.HasPrefix(rest, "//") {
		return false
	}
	authority := rest[2:]
	if i := strings.IndexAny(authority, "/?#"); i >= 0 {
		authority = authority[:i]
	}
	return authority != ""
}

func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}
