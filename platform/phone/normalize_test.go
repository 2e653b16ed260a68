package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"06 12 34 56 78", "+33612345678"},
		{"+33 6 12 34 56 78", "+33612345678"},
		{"  ", ""},
		{"not a number", "not a number"},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("") {
		t.Fatal("empty phone should be accepted")
	}
	if !IsValid("0612345678") {
		t.Fatal("french mobile should be valid")
	}
	if IsValid("12") {
		t.Fatal("two digits should not be valid")
	}
}
