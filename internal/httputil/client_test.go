package httputil

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewSecureClient_ZeroOptionsUseDefaults(t *testing.T) {
	client := NewSecureClient(ClientOptions{})
	if client.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", client.Timeout)
	}

	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport = %T, want *http.Transport", client.Transport)
	}
	if transport.ResponseHeaderTimeout != 60*time.Second {
		t.Errorf("ResponseHeaderTimeout = %v, want 60s", transport.ResponseHeaderTimeout)
	}
	if transport.TLSHandshakeTimeout != 10*time.Second {
		t.Errorf("TLSHandshakeTimeout = %v, want 10s", transport.TLSHandshakeTimeout)
	}
}

func TestAPIClientOptions(t *testing.T) {
	opts := APIClientOptions(2 * time.Minute)
	if opts.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", opts.Timeout)
	}
	if opts.ResponseHeaderTimeout != 2*time.Minute {
		t.Errorf("ResponseHeaderTimeout = %v, want 2m", opts.ResponseHeaderTimeout)
	}
	if opts.DialTimeout != DefaultOptions().DialTimeout {
		t.Errorf("DialTimeout = %v, want %v", opts.DialTimeout, DefaultOptions().DialTimeout)
	}

	if got := APIClientOptions(0); got != DefaultOptions() {
		t.Errorf("APIClientOptions(0) = %+v, want defaults", got)
	}
}

func TestRedirectToHTTPBlocked(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://example.com/evil", http.StatusFound)
	}))
	defer server.Close()

	client := NewSecureClient(ClientOptions{})
	client.Transport = server.Client().Transport

	resp, err := client.Get(server.URL)
	if resp != nil {
		resp.Body.Close()
	}
	if err == nil || !strings.Contains(err.Error(), "non-HTTPS") {
		t.Errorf("expected non-HTTPS redirect error, got %v", err)
	}
}

func TestRedirectChecker(t *testing.T) {
	orig := lookupIP
	t.Cleanup(func() { lookupIP = orig })
	lookupIP = func(host string) ([]net.IP, error) {
		switch host {
		case "rebind.example":
			return []net.IP{net.ParseIP("93.184.216.34"), net.ParseIP("10.0.0.5")}, nil
		default:
			return []net.IP{net.ParseIP("93.184.216.34")}, nil
		}
	}

	tests := []struct {
		name    string
		url     string
		via     int
		wantErr string
	}{
		{"public host", "https://api.example.com/v1", 0, ""},
		{"public ip", "https://93.184.216.34/", 0, ""},
		{"private ip", "https://192.168.1.1/admin", 0, "private"},
		{"loopback", "https://127.0.0.1/", 0, "loopback"},
		{"metadata service", "https://169.254.169.254/", 0, "link-local"},
		{"unspecified", "https://0.0.0.0/", 0, "unspecified"},
		{"multicast", "https://239.1.1.1/", 0, "multicast"},
		{"rebinding answer", "https://rebind.example/", 0, "private"},
		{"too many", "https://api.example.com/", 5, "too many redirects"},
	}

	check := redirectChecker(5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, tt.url, nil)
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}

			err = check(req, make([]*http.Request, tt.via))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
