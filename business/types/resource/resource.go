// Package resource represents the things a tenant can act on.
package resource

import "fmt"

// The set of resources that can be used. Service targets a single tenant,
// Services the whole collection.
var (
	Services = newResource("services")
	Service  = newResource("service")
	Rooms    = newResource("rooms")
	Room     = newResource("room")
	Token    = newResource("token")
)

// =============================================================================

// Set of known resources.
var resources = make(map[string]Resource)

// Resource represents a resource in the system.
type Resource struct {
	value string
}

func newResource(resource string) Resource {
	r := Resource{resource}
	resources[resource] = r
	return r
}

// String returns the name of the resource.
func (r Resource) String() string {
	return r.value
}

// Equal provides support for the go-cmp package and testing.
func (r Resource) Equal(r2 Resource) bool {
	return r.value == r2.value
}

// MarshalText provides support for logging and any marshal needs.
func (r Resource) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}

// IsZero reports whether r is the zero value.
func (r Resource) IsZero() bool {
	return r.value == ""
}

// =============================================================================

// Parse parses the string value and returns a resource if one exists.
func Parse(value string) (Resource, error) {
	resource, exists := resources[value]
	if !exists {
		return Resource{}, fmt.Errorf("invalid resource %q", value)
	}

	return resource, nil
}
