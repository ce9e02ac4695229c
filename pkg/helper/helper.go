package helper

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// FormatDistance prints a distance in squares with two decimals.
func FormatDistance(squares float64) string {
	if squares <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f sq", squares)
}

// FormatWait renders the turns a crashed formula still has to sit out.
func FormatWait(turns int) string {
	switch {
	case turns <= 0:
		return "-"
	case turns == 1:
		return "1 turn"
	}
	return fmt.Sprintf("%d turns", turns)
}

// RacerCode shortens a racer name to three letters, e.g. "Player 1" to
// "PL1" and "Computer" to "COM".
func RacerCode(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	code := string(words[0][0])
	if len(words) > 1 {
		if len(words[1]) > 2 {
			code += words[1][:2]
		} else {
			code = firstN(words[0], 2) + words[1]
		}
	} else {
		code = firstN(words[0], 3)
	}
	return strings.ToUpper(firstN(code, 3))
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ToID hashes a name into a stable numeric identifier.
func ToID(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprint(h.Sum32())
}
