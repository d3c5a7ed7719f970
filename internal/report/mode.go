package report

import (
	"fmt"
	"strings"
)

// Mode selects the report shape produced by an assembler.
type Mode int

const (
	ModeSimple Mode = iota
	ModeDetail
	ModeTree
)

var modeNames = map[Mode]string{
	ModeSimple: "simple",
	ModeDetail: "detail",
	ModeTree:   "tree",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name, case insensitive. An empty name is
// ModeSimple.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return ModeSimple, nil
	case "detail", "flat":
		return ModeDetail, nil
	case "tree":
		return ModeTree, nil
	default:
		return ModeSimple, fmt.Errorf("unknown report mode %q", s)
	}
}
