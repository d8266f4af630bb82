package aggregate

import (
	"strconv"
	"strings"
)

// CompareCategories orders category labels naturally: labels with a leading
// number compare by that number ("7+" < "13+" < "18+", "1999" < "2004") and
// sort before labels without one; ties and non-numeric labels fall back to
// byte order. Returns -1, 0 or 1.
func CompareCategories(a, b string) int {
	na, okA := leadingNumber(a)
	nb, okB := leadingNumber(b)
	switch {
	case okA && okB:
		if na < nb {
			return -1
		}
		if na > nb {
			return 1
		}
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

func leadingNumber(s string) (float64, bool) {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
