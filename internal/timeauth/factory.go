package timeauth

import "fmt"

// New constructs an authority by name. "ntp" takes an optional server
// override; "quorum" combines ntp and drand and requires both to answer.
func New(name, ntpServer string) (Authority, error) {
	switch name {
	case "", "ntp":
		return NewNTPAuthority(ntpServer), nil
	case "drand":
		return NewDrandAuthority(), nil
	case "quorum":
		return NewQuorumAuthority(NewNTPAuthority(ntpServer), NewDrandAuthority()), nil
	default:
		return nil, fmt.Errorf("unknown time authority %q (want ntp, drand, or quorum)", name)
	}
}

// NewDefaultAuthority creates the default production time authority.
func NewDefaultAuthority() Authority {
	return NewNTPAuthority("")
}
