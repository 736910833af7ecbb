package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := map[string]string{
		"(212) 555-0173":  "+12125550173",
		"+31 6 12345678":  "+31612345678",
		"  212-555-0173 ": "+12125550173",
		"":                "",
		"not a number":    "not a number",
		"12345":           "12345",
	}
	for input, want := range cases {
		if got := NormalizeE164(input); got != want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", input, got, want)
		}
	}
}
