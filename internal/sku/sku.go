// Package sku derives human-readable stock codes from item names.
package sku

import (
	"fmt"
	"strconv"
	"strings"
)

const maxPrefixLen = 12

// Normalize converts an item name into an uppercase
// alphanumeric-with-hyphens prefix, truncated to 12 characters.
func Normalize(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		switch {
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	prefix := strings.Trim(b.String(), "-")
	if len(prefix) > maxPrefixLen {
		prefix = strings.Trim(prefix[:maxPrefixLen], "-")
	}
	return prefix
}

// Suggest returns "<prefix>-<n>" where n is the smallest positive
// suffix not taken by an existing SKU sharing the prefix. existing may
// contain unrelated codes; they are ignored.
func Suggest(name string, existing []string) string {
	prefix := Normalize(name)
	if prefix == "" {
		prefix = "ITEM"
	}

	taken := make(map[int]bool, len(existing))
	for _, code := range existing {
		rest, ok := strings.CutPrefix(code, prefix+"-")
		if !ok {
			if code == prefix {
				taken[0] = true
			}
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			taken[n] = true
		}
	}

	n := 1
	for taken[n] {
		n++
	}
	return fmt.Sprintf("%s-%d", prefix, n)
}
