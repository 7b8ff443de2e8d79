package auth

import "strings"

// AddressInput is either a pre-joined address or its discrete components.
type AddressInput interface {
	Resolve() string
}

// JoinedAddress is an address the client already joined
type JoinedAddress string

// AddressComponents are joined with ", " skipping empty parts
type AddressComponents struct {
	Street   string
	Ward     string
	District string
	City     string
}

func (j JoinedAddress) Resolve() string {
	return strings.TrimSpace(string(j))
}

func (c AddressComponents) Resolve() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.Street, c.Ward, c.District, c.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// NewAddressInput picks the joined form when final is not blank.
func NewAddressInput(final string, components AddressComponents) AddressInput {
	if strings.TrimSpace(final) != "" {
		return JoinedAddress(final)
	}
	return components
}

// ResolveAddress is a shorthand for NewAddressInput(final, components).Resolve()
func ResolveAddress(final string, components AddressComponents) string {
	return NewAddressInput(final, components).Resolve()
}
