//go:build go1.18

package domain

import "testing"

// FuzzParseStudentID checks that parsing never panics and that accepted ids
// round-trip through their canonical string form.
func FuzzParseStudentID(f *testing.F) {
	f.Add("")
	f.Add("0")
	f.Add("4294967295")
	f.Add("4294967296")
	f.Add("-7")
	f.Add("'; DROP TABLE student_names;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseStudentID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseStudentID(id.String())
		if err != nil {
			t.Errorf("valid id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed id value")
		}
	})
}

// FuzzParseAccountID checks that accepted account ids are never zero and
// round-trip through hex.
func FuzzParseAccountID(f *testing.F) {
	f.Add("")
	f.Add("0x")
	f.Add("0000000000000000000000000000000000000000000000000000000000000000")
	f.Add("abababababababababababababababababababababababababababababababab")

	f.Fuzz(func(t *testing.T, input string) {
		a, err := ParseAccountID(input)
		if err != nil {
			return
		}
		if a.IsZero() {
			t.Error("zero account accepted")
		}
		again, err := ParseAccountID(a.String())
		if err != nil || again != a {
			t.Error("account id failed round-trip")
		}
	})
}
