package artifact

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// NormalizeURL applies recipeforge's URL normalization rules so that fetch
// dedup and cache-key hashing are stable regardless of superficial
// differences in how a URL was written in a manifest:
//   - lowercase scheme and host
//   - default ports (80 for http, 443 for https) are omitted; other explicit
//     ports are kept
//   - trailing "/" is stripped from the path
//   - query parameters are sorted lexicographically by key and re-encoded
//   - URL fragments are dropped
//   - the params component (the rarely-used `;key=value` path segment
//     suffix) is preserved as-is
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = normalizeHost(u.Scheme, u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Fragment = ""
	u.RawQuery = sortedQuery(u.RawQuery)

	return u.String(), nil
}

func normalizeHost(scheme, host string) string {
	hostname := host
	port := ""
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		hostname = host[:idx]
		port = host[idx+1:]
	}
	hostname = strings.ToLower(hostname)

	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	if port == "" {
		return hostname
	}
	return hostname + ":" + port
}

func sortedQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		vs := values[k]
		sort.Strings(vs)
		for j, v := range vs {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// CacheKey returns the first 24 hex digits of SHA1(normalizedURL), the
// directory name under <build_root>/fetch_cache/ for this URL.
func CacheKey(normalizedURL string) string {
	sum := sha1.Sum([]byte(normalizedURL))
	return hex.EncodeToString(sum[:])[:24]
}
