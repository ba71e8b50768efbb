// Package membership keeps group member lists consistent: every member
// resolves to a real user, the creator is always first, and no two members
// share a marker colour.
package membership

import (
	"hash/fnv"
	"strings"
)

// Palette is the ordered set of marker colours members can pick from.
type Palette []string

// NewPalette normalises colours to lower case and drops blanks and repeats.
func NewPalette(colors []string) Palette {
	p := make(Palette, 0, len(colors))
	seen := make(map[string]bool, len(colors))
	for _, c := range colors {
		c = normalizeColor(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		p = append(p, c)
	}
	return p
}

func (p Palette) Contains(color string) bool {
	color = normalizeColor(color)
	for _, c := range p {
		if c == color {
			return true
		}
	}
	return false
}

// ColorFor picks a stable palette colour for a username. It is used as a
// user's global colour, which is not required to be unique.
func (p Palette) ColorFor(username string) string {
	if len(p) == 0 {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(username)))
	return p[h.Sum32()%uint32(len(p))]
}

func normalizeColor(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
