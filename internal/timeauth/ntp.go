package timeauth

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// DefaultNTPServer is the default NTP time authority.
const DefaultNTPServer = "ntp1.inrim.it"

// ntpQuery is a test seam for ntp.QueryWithOptions.
var ntpQuery = ntp.QueryWithOptions

// NTPAuthority obtains the current time from a single NTP server. The server
// transmit time is used directly; the local clock never enters the comparison.
type NTPAuthority struct {
	Server string
}

// NewNTPAuthority creates an NTP authority for the given server, or the
// default server when empty.
func NewNTPAuthority(server string) *NTPAuthority {
	if server == "" {
		server = DefaultNTPServer
	}
	return &NTPAuthority{Server: server}
}

func (a *NTPAuthority) Name() string {
	return "ntp"
}

// Now performs one bounded NTP query. Any transport failure, timeout, or
// invalid response is returned as an error; there is no retry here.
func (a *NTPAuthority) Now(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	resp, err := ntpQuery(a.Server, ntp.QueryOptions{Timeout: queryTimeout(ctx)})
	if err != nil {
		return time.Time{}, fmt.Errorf("ntp query %s: %w", a.Server, err)
	}
	if err := resp.Validate(); err != nil {
		return time.Time{}, fmt.Errorf("ntp response from %s invalid: %w", a.Server, err)
	}

	return resp.Time.UTC(), nil
}
