package cluster

import (
	"net/url"
	"path"
	"strings"
)

// URLPath returns the path component when loc is an http(s) URL, or the
// empty string for anything else.
func URLPath(loc string) string {
	loc = strings.TrimSpace(loc)
	if !strings.HasPrefix(loc, "http://") && !strings.HasPrefix(loc, "https://") {
		return ""
	}
	u, err := url.Parse(loc)
	if err != nil {
		return ""
	}
	return u.Path
}

// Basename extracts the file basename from a location string. URLs reduce
// to their path first, then trailing :line and :line:col markers are
// stripped. Returns "" when nothing usable remains.
func Basename(loc string) string {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return ""
	}
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		u, err := url.Parse(loc)
		if err != nil {
			return ""
		}
		loc = u.Path
	}
	loc = stripLineSuffix(loc)
	if loc == "" {
		return ""
	}
	base := path.Base(loc)
	if base == "/" || base == "." {
		return ""
	}
	return base
}

// stripLineSuffix drops up to two trailing numeric :segments, covering
// both path:line and path:line:col.
func stripLineSuffix(loc string) string {
	for i := 0; i < 2; i++ {
		idx := strings.LastIndex(loc, ":")
		if idx < 0 || idx == len(loc)-1 || !allDigits(loc[idx+1:]) {
			return loc
		}
		loc = loc[:idx]
	}
	return loc
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Match reports whether two location strings plausibly point at the same
// place. Two URLs compare by path alone: DAST tools report against a live
// host while SAST tools never do, so host and query carry no signal.
// Everything else compares by file basename. Empty or unextractable
// locations never match.
func Match(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	pathA, pathB := URLPath(a), URLPath(b)
	if pathA != "" && pathB != "" {
		return pathA == pathB
	}
	baseA, baseB := Basename(a), Basename(b)
	return baseA != "" && baseB != "" && baseA == baseB
}
