package groups

import "github.com/cespare/xxhash/v2"

// palette holds the colors assigned to groups created without an explicit
// one. Picked to stay readable on both dark and light client themes.
var palette = []string{
	"#e53935", "#d81b60", "#8e24aa", "#5e35b1", "#3949ab",
	"#1e88e5", "#039be5", "#00897b", "#43a047", "#7cb342",
	"#c0ca33", "#ffb300", "#fb8c00", "#f4511e", "#6d4c41",
}

// ColorFor deterministically maps a group name onto the palette, so the
// same name always gets the same color without storing anything extra.
func ColorFor(name string) string {
	return palette[xxhash.Sum64String(name)%uint64(len(palette))]
}
