package httputil

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientAppliesDefaults(t *testing.T) {
	t.Parallel()
	client := NewClient(ClientOptions{})

	if client.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", client.Timeout)
	}
	if client.CheckRedirect == nil {
		t.Error("expected redirect checker to be installed")
	}
}

func TestUserAgentTransport(t *testing.T) {
	t.Parallel()
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{UserAgent: "nwupd/1.0"})
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got != "nwupd/1.0" {
		t.Errorf("expected User-Agent nwupd/1.0, got %q", got)
	}
}

func TestUserAgentTransportDoesNotOverrideExplicitHeader(t *testing.T) {
	t.Parallel()
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{UserAgent: "nwupd/1.0"})
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("User-Agent", "custom/2.0")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got != "custom/2.0" {
		t.Errorf("expected explicit User-Agent to survive, got %q", got)
	}
}

func TestRedirectCheckerBlocksLoopback(t *testing.T) {
	t.Parallel()
	checker := makeRedirectChecker(10)

	req := httptest.NewRequest(http.MethodGet, "http://127.0.0.1/evil", nil)
	if err := checker(req, nil); err == nil {
		t.Error("expected redirect to loopback IP to be rejected")
	}
}

func TestRedirectCheckerLimitsDepth(t *testing.T) {
	t.Parallel()
	checker := makeRedirectChecker(3)

	req := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	via := []*http.Request{req, req, req}
	if err := checker(req, via); err == nil {
		t.Error("expected redirect chain over the limit to be rejected")
	}
}

func TestValidateIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		ip      string
		blocked bool
	}{
		{"public ipv4", "93.184.216.34", false},
		{"private 10/8", "10.1.2.3", true},
		{"private 192.168/16", "192.168.1.1", true},
		{"private 172.16/12", "172.20.0.1", true},
		{"loopback", "127.0.0.1", true},
		{"link-local", "169.254.169.254", true},
		{"multicast", "224.0.0.1", true},
		{"unspecified", "0.0.0.0", true},
		{"ipv6 loopback", "::1", true},
		{"public ipv6", "2606:2800:220:1:248:1893:25c8:1946", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIP(net.ParseIP(tt.ip), tt.ip)
			if tt.blocked && err == nil {
				t.Errorf("expected %s to be blocked", tt.ip)
			}
			if !tt.blocked && err != nil {
				t.Errorf("expected %s to be allowed, got: %v", tt.ip, err)
			}
		})
	}
}
