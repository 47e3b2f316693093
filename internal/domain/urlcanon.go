package domain

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters stripped during canonicalization
// because they vary per-click rather than identifying the resource
// (spec §4.2 "normalize + dedupe").
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "gclid": true, "fbclid": true,
	"ref": true, "mc_cid": true, "mc_eid": true,
}

// CanonicalizeURL normalizes u per spec §4.2: lowercase scheme+host,
// strip default ports, strip a trailing slash on the path (except root),
// drop tracking query parameters, sort remaining query parameters, and
// drop the fragment. Idempotent: CanonicalizeURL(CanonicalizeURL(x)) ==
// CanonicalizeURL(x).
func CanonicalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", Input(CodeValidation, "url is not parseable")
	}
	if parsed.Host == "" {
		return "", Input(CodeValidation, "url has no host")
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}

	host := strings.ToLower(parsed.Host)
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		port := host[idx+1:]
		if (parsed.Scheme == "http" && port == "80") || (parsed.Scheme == "https" && port == "443") {
			host = host[:idx]
		}
	}
	parsed.Host = host

	path := parsed.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimRight(path, "/")
	}
	parsed.Path = path

	q := parsed.Query()
	for k := range q {
		if trackingParams[strings.ToLower(k)] {
			q.Del(k)
		}
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := url.Values{}
	for _, k := range keys {
		for _, v := range q[k] {
			values.Add(k, v)
		}
	}
	parsed.RawQuery = values.Encode()
	parsed.Fragment = ""

	return parsed.String(), nil
}
