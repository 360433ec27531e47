package geoip

import "testing"

func TestLanguageForCountry(t *testing.T) {
	tests := map[string]string{
		"NL":  "nl",
		"be":  "nl",
		" us": "en",
		"JP":  "",
		"":    "",
	}
	for code, want := range tests {
		if got := LanguageForCountry(code); got != want {
			t.Fatalf("LanguageForCountry(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestNilResolverUnavailable(t *testing.T) {
	var r *Resolver
	if _, err := r.CountryCode("8.8.8.8"); err != ErrUnavailable {
		t.Fatalf("CountryCode error = %v, want ErrUnavailable", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
}

func TestNewResolverEmptyPath(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil || r != nil {
		t.Fatalf("NewResolver(\"\") = %v, %v; want nil, nil", r, err)
	}
}
