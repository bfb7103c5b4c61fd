package enums

import "fmt"

// AccessLevel maps to the access_level enum in Postgres. Levels are
// ordered: no_access < read_only < read_write < full_access.
type AccessLevel string

const (
	AccessNone      AccessLevel = "no_access"
	AccessReadOnly  AccessLevel = "read_only"
	AccessReadWrite AccessLevel = "read_write"
	AccessFull      AccessLevel = "full_access"
)

var validAccessLevels = []AccessLevel{
	AccessNone,
	AccessReadOnly,
	AccessReadWrite,
	AccessFull,
}

var accessLevelRanks = map[AccessLevel]int{
	AccessNone:      0,
	AccessReadOnly:  1,
	AccessReadWrite: 2,
	AccessFull:      3,
}

// Rank returns the position of the level in the access hierarchy.
// Unknown levels rank below no_access.
func (a AccessLevel) Rank() int {
	rank, ok := accessLevelRanks[a]
	if !ok {
		return -1
	}
	return rank
}

// AtLeast reports whether the level grants everything min does.
func (a AccessLevel) AtLeast(min AccessLevel) bool {
	return a.Rank() >= min.Rank() && a.Rank() >= 0
}

// String implements fmt.Stringer.
func (a AccessLevel) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AccessLevel.
func (a AccessLevel) IsValid() bool {
	for _, candidate := range validAccessLevels {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAccessLevel converts raw input into an AccessLevel.
func ParseAccessLevel(value string) (AccessLevel, error) {
	for _, candidate := range validAccessLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid access level %q", value)
}
