package region

import (
	"errors"
	"fmt"
	"strings"
)

// Region classifies the host network by which mirror set it should use.
type Region string

const (
	// China indicates the host sits behind China's network boundary and
	// should use in-country mirrors.
	China Region = "china"
	// Global indicates unrestricted access to upstream sources.
	Global Region = "global"
	// Unknown is accepted from user input when the caller does not want to
	// commit to a classification. Detection never produces it.
	Unknown Region = "unknown"
)

// ErrInvalidRegion indicates a region string outside the known set.
var ErrInvalidRegion = errors.New("invalid region")

// ParseRegion converts a user-supplied string into a Region, case-insensitively.
func ParseRegion(s string) (Region, error) {
	switch Region(strings.ToLower(strings.TrimSpace(s))) {
	case China:
		return China, nil
	case Global:
		return Global, nil
	case Unknown:
		return Unknown, nil
	default:
		return "", fmt.Errorf("%w: %q (valid regions: china, global, unknown)", ErrInvalidRegion, s)
	}
}

func (r Region) String() string {
	return string(r)
}
