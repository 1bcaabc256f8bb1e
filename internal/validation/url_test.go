package validation

import (
	"net"
	"strings"
	"testing"
)

func TestNewURLValidator(t *testing.T) {
	v := NewURLValidator()
	if v.AllowLocalhost {
		t.Error("Expected AllowLocalhost to be false for security")
	}
	if v.AllowPrivateIPs {
		t.Error("Expected AllowPrivateIPs to be false for security")
	}
	if v.MaxLength != 2048 {
		t.Errorf("Expected MaxLength to be 2048, got %d", v.MaxLength)
	}

	p := NewPermissiveURLValidator()
	if !p.AllowLocalhost || !p.AllowPrivateIPs {
		t.Error("Expected permissive validator to allow local hosts")
	}
}

func TestValidateAndNormalize(t *testing.T) {
	v := NewURLValidator()

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
		errorMsg    string
	}{
		{name: "empty URL", input: "", shouldError: true, errorMsg: "URL cannot be empty"},
		{name: "whitespace-only URL", input: "   ", shouldError: true, errorMsg: "URL cannot be empty"},
		{name: "api base", input: "https://newsapi.org/v2", expected: "https://newsapi.org/v2"},
		{name: "missing scheme", input: "newsapi.org/v2", expected: "https://newsapi.org/v2"},
		{name: "plain http", input: "http://feeds.bbci.co.uk/news/rss.xml", expected: "http://feeds.bbci.co.uk/news/rss.xml"},
		{name: "fragment dropped", input: "https://newsapi.org/v2#top", expected: "https://newsapi.org/v2"},
		{name: "with port", input: "https://news.example.org:8443/v2", expected: "https://news.example.org:8443/v2"},
		{name: "ftp scheme", input: "ftp://newsapi.org/v2", shouldError: true, errorMsg: "http or https"},
		{name: "javascript scheme", input: "javascript://alert(1)", shouldError: true},
		{name: "quote character", input: "https://newsapi.org/\"v2", shouldError: true, errorMsg: "invalid characters"},
		{name: "localhost", input: "http://localhost:8080", shouldError: true, errorMsg: "localhost"},
		{name: "loopback ip", input: "http://127.0.0.1:8080", shouldError: true, errorMsg: "localhost"},
		{name: "private ip", input: "http://192.168.1.10/feed", shouldError: true, errorMsg: "private IP"},
		{name: "unroutable", input: "http://0.0.0.0/", shouldError: true, errorMsg: "unroutable"},
		{name: "traversal", input: "https://newsapi.org/v2/../admin", shouldError: true, errorMsg: "traversal"},
		{name: "too long", input: "https://newsapi.org/" + strings.Repeat("a", 2100), shouldError: true, errorMsg: "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ValidateAndNormalize(tt.input)
			if tt.shouldError {
				if err == nil {
					t.Fatalf("ValidateAndNormalize(%q) expected error, got %q", tt.input, got)
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateAndNormalize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ValidateAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidateAndNormalizePermissive(t *testing.T) {
	v := NewPermissiveURLValidator()

	for _, input := range []string{"http://localhost:8080", "http://127.0.0.1:49152/v2", "http://10.0.0.5/feed.xml"} {
		if _, err := v.ValidateAndNormalize(input); err != nil {
			t.Errorf("permissive validator rejected %q: %v", input, err)
		}
	}
}

func TestBrowsableURL(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"https://www.reuters.com/world/story", true},
		{"http://example.org/a?b=c", true},
		{"", false},
		{"www.reuters.com/world", false},
		{"file:///etc/passwd", false},
		{"javascript:alert(1)", false},
		{"mailto:desk@example.org", false},
		{"https://", false},
	}

	for _, tt := range tests {
		u, err := BrowsableURL(tt.input)
		if tt.ok && err != nil {
			t.Errorf("BrowsableURL(%q) unexpected error: %v", tt.input, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("BrowsableURL(%q) = %v, want error", tt.input, u)
		}
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.0.1", true},
		{"169.254.1.1", true},
		{"127.0.0.1", true},
		{"fd00::1", true},
		{"fe80::1", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
	}

	for _, tt := range tests {
		if got := isPrivateIP(net.ParseIP(tt.ip)); got != tt.private {
			t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
		}
	}
}

func TestIsLocalhost(t *testing.T) {
	for _, h := range []string{"localhost", "LOCALHOST", "api.localhost", "127.0.0.1", "127.1.2.3", "::1"} {
		if !isLocalhost(h) {
			t.Errorf("isLocalhost(%q) = false, want true", h)
		}
	}
	for _, h := range []string{"newsapi.org", "localhost.org", "10.0.0.1"} {
		if isLocalhost(h) {
			t.Errorf("isLocalhost(%q) = true, want false", h)
		}
	}
}
