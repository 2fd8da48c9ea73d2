// Package name represents the display name of a service or room.
package name

import (
	"fmt"
	"regexp"
	"strings"
)

// Name represents a name in the system.
type Name struct {
	value string
}

// String returns the value of the name.
func (n Name) String() string {
	return n.value
}

// Equal provides support for the go-cmp package and testing.
func (n Name) Equal(n2 Name) bool {
	return n.value == n2.value
}

// MarshalText provides support for logging and any marshal needs.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.value), nil
}

// UnmarshalText parses the name from text.
func (n *Name) UnmarshalText(data []byte) error {
	v, err := Parse(string(data))
	if err != nil {
		return err
	}

	*n = v
	return nil
}

// =============================================================================

// nameRegEx starts with a letter or digit followed by letters, digits,
// spaces, dots, underscores or hyphens.
var nameRegEx = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} ._\-]{0,127}$`)

// Parse parses the string value and returns a name if the value complies
// with the rules for a name. Surrounding spaces are dropped.
func Parse(value string) (Name, error) {
	value = strings.TrimSpace(value)

	if !nameRegEx.MatchString(value) {
		return Name{}, fmt.Errorf("invalid name %q", value)
	}

	return Name{value}, nil
}

// MustParse parses the string value and returns a name if the value
// complies with the rules for a name. If an error occurs the function panics.
func MustParse(value string) Name {
	n, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return n
}
