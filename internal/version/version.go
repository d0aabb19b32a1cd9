package version

import (
	"strconv"
	"strings"
)

// Version is the service version. It is overridden at build time with
// -ldflags "-X github.com/danya1a/Reminder-bot/internal/version.Version=x.y.z".
var Version = "0.3.0"

// IsVersionGreaterThan reports whether version is strictly greater than target.
// Both are expected in "major.minor.patch" form; missing parts count as zero.
func IsVersionGreaterThan(version, target string) bool {
	return compare(version, target) > 0
}

// IsVersionGreaterOrEqualThan reports whether version >= target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return compare(version, target) >= 0
}

func compare(a, b string) int {
	pa, pb := parts(a), parts(b)
	for i := 0; i < 3; i++ {
		if pa[i] != pb[i] {
			if pa[i] > pb[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

func parts(v string) [3]int {
	var out [3]int
	for i, p := range strings.SplitN(strings.TrimPrefix(v, "v"), ".", 3) {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out[i] = n
	}
	return out
}
