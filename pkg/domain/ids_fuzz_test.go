package domain

import (
	"testing"
)

// FuzzParseUserID checks that parsing never panics and accepted ids round-trip.
func FuzzParseUserID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("9223372036854775807")
	f.Add("not-a-number")
	f.Add("'; DROP TABLE staff;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseUserID(input)
		if err != nil {
			return
		}
		if id <= 0 {
			t.Errorf("accepted non-positive id %d", id)
		}
		roundTrip, err := ParseUserID(id.String())
		if err != nil || roundTrip != id {
			t.Errorf("round-trip failed for %q", input)
		}
	})
}
