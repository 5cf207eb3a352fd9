package crawler

import (
	"errors"
	"testing"
)

func TestParseSURTHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		surt    string
		want    string
		wantErr bool
	}{
		{
			name: "reverses labels into normal order",
			surt: "com,example)/",
			want: "example.com",
		},
		{
			name: "handles subdomains",
			surt: "com,example,www)/robots.txt",
			want: "www.example.com",
		},
		{
			name: "drops the port suffix",
			surt: "com,example:8080)/",
			want: "example.com",
		},
		{
			name: "drops the port on a deep host",
			surt: "org,wikipedia,en:443)/wiki",
			want: "en.wikipedia.org",
		},
		{
			name: "converts unicode labels to punycode",
			surt: "com,münchen)/",
			want: "xn--mnchen-3ya.com",
		},
		{
			name:    "rejects reversed IP literals",
			surt:    "0,102,126,13:7037)/robots.txt",
			wantErr: true,
		},
		{
			name:    "rejects an empty key",
			surt:    ")/",
			wantErr: true,
		},
		{
			name:    "rejects an empty first label",
			surt:    ",com)/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseSURTHost(tt.surt)
			if tt.wantErr {
				if !errors.Is(err, errNotHostname) {
					t.Fatalf("expected errNotHostname, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIsAllDigits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"0", true},
		{"102", true},
		{"", true},
		{"13a", false},
		{"com", false},
		{"1.2", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := isAllDigits(tt.input); got != tt.want {
				t.Errorf("isAllDigits(%q) = %v, expected %v", tt.input, got, tt.want)
			}
		})
	}
}
