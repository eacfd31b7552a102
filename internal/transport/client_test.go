package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("direct by default", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.UsesProxy() {
			t.Error("expected direct client")
		}
		if client.ProxyAddress() != "" {
			t.Errorf("ProxyAddress() = %q, expected empty", client.ProxyAddress())
		}
	})

	t.Run("valid proxy address creates proxied client", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(WithProxy("127.0.0.1:9050"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !client.UsesProxy() {
			t.Error("expected proxied client")
		}
		if client.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("ProxyAddress() = %q, expected %q", client.ProxyAddress(), "127.0.0.1:9050")
		}
	})

	t.Run("invalid proxy address returns error", func(t *testing.T) {
		t.Parallel()

		for _, addr := range []string{"127.0.0.1", ":9050", "127.0.0.1:", "127.0.0.1:9050:extra", "host:0", "host:70000"} {
			if _, err := NewClient(WithProxy(addr)); !errors.Is(err, ErrInvalidProxyAddress) {
				t.Errorf("NewClient(WithProxy(%q)) error = %v, expected ErrInvalidProxyAddress", addr, err)
			}
		}
	})
}

func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		address  string
		expected bool
	}{
		{"valid IPv4 with port", "127.0.0.1:9050", true},
		{"valid localhost with port", "localhost:9050", true},
		{"valid hostname with port", "proxy.example.com:1080", true},
		{"valid IPv6 with port", "[::1]:9050", true},
		{"empty string", "", false},
		{"no port", "127.0.0.1", false},
		{"empty host", ":9050", false},
		{"empty port", "127.0.0.1:", false},
		{"non-numeric port", "127.0.0.1:socks", false},
		{"only colon", ":", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := isValidProxyAddress(tc.address); got != tc.expected {
				t.Errorf("isValidProxyAddress(%q) = %v, expected %v", tc.address, got, tc.expected)
			}
		})
	}
}

func TestHTTPClient(t *testing.T) {
	t.Parallel()

	client, err := NewClient(WithTimeout(60 * time.Second))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	httpClient := client.HTTPClient()

	if httpClient.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, expected %v", httpClient.Timeout, 60*time.Second)
	}
	if httpClient.Jar == nil {
		t.Error("expected non-nil cookie jar")
	}
	if httpClient.Transport == nil {
		t.Error("expected non-nil transport")
	}
}

func TestHTTPClient_InjectsHeadersAndCookie(t *testing.T) {
	t.Parallel()

	received := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		received <- r.Header.Clone()
	}))
	defer server.Close()

	client, err := NewClient(
		WithCookie("session=abc"),
		WithHeaders(map[string]string{"X-Crawl": "yes"}),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Cookie", "lang=en")

	resp, err := client.HTTPClient().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	header := <-received
	gotCookie, gotHeader := header.Get("Cookie"), header.Get("X-Crawl")
	if gotCookie != "lang=en; session=abc" {
		t.Errorf("Cookie = %q, expected %q", gotCookie, "lang=en; session=abc")
	}
	if gotHeader != "yes" {
		t.Errorf("X-Crawl = %q, expected %q", gotHeader, "yes")
	}
}

func TestHTTPClient_RedirectLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	client, err := NewClient()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	resp, err := client.HTTPClient().Get(server.URL + "/") //nolint:noctx // test request
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected redirect error")
	}
	if !strings.Contains(err.Error(), "stopped after 10 redirects") {
		t.Errorf("unexpected error: %v", err)
	}
}

// fakeProxy accepts one connection, reads a greeting and writes reply.
func fakeProxy(t *testing.T, reply []byte) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		greeting := make([]byte, 3)
		if _, err := io.ReadFull(conn, greeting); err != nil {
			return
		}
		if reply != nil {
			_, _ = conn.Write(reply) //nolint:errcheck // test server
		}
	}()
	return ln.Addr().String()
}

func TestCheckProxy(t *testing.T) {
	t.Parallel()

	t.Run("no proxy is direct", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient()
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if got := client.CheckProxy(context.Background()); got != ProxyStatusDirect {
			t.Errorf("CheckProxy() = %v, expected %v", got, ProxyStatusDirect)
		}
	})

	t.Run("SOCKS5 proxy is OK", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(WithProxy(fakeProxy(t, []byte{0x05, 0x00})))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if got := client.CheckProxy(context.Background()); got != ProxyStatusOK {
			t.Errorf("CheckProxy() = %v, expected %v", got, ProxyStatusOK)
		}
	})

	t.Run("proxy requiring auth is wrong type", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(WithProxy(fakeProxy(t, []byte{0x05, 0xFF})))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if got := client.CheckProxy(context.Background()); got != ProxyStatusWrongType {
			t.Errorf("CheckProxy() = %v, expected %v", got, ProxyStatusWrongType)
		}
	})

	t.Run("HTTP server is wrong type", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(WithProxy(fakeProxy(t, []byte("HTTP/1.1 400 Bad Request\r\n\r\n"))))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if got := client.CheckProxy(context.Background()); got != ProxyStatusWrongType {
			t.Errorf("CheckProxy() = %v, expected %v", got, ProxyStatusWrongType)
		}
	})

	t.Run("closed port cannot connect", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		addr := ln.Addr().String()
		ln.Close()

		client, err := NewClient(WithProxy(addr))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if got := client.CheckProxy(context.Background()); got != ProxyStatusCannotConnect {
			t.Errorf("CheckProxy() = %v, expected %v", got, ProxyStatusCannotConnect)
		}
	})
}

func TestProxyStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status      ProxyStatus
		expected    string
		expectedErr error
	}{
		{ProxyStatusOK, "OK", nil},
		{ProxyStatusDirect, "direct (no proxy)", nil},
		{ProxyStatusWrongType, "wrong type (not SOCKS5)", ErrProxyNotSOCKS5},
		{ProxyStatusCannotConnect, "cannot connect", ErrProxyCannotConnect},
		{ProxyStatusTimeout, "timeout", ErrProxyTimeout},
	}

	for _, tc := range testCases {
		if tc.status.String() != tc.expected {
			t.Errorf("ProxyStatus(%d).String() = %q, expected %q", tc.status, tc.status.String(), tc.expected)
		}
		if err := tc.status.Err(); !errors.Is(err, tc.expectedErr) {
			t.Errorf("ProxyStatus(%d).Err() = %v, expected %v", tc.status, err, tc.expectedErr)
		}
	}

	if ProxyStatus(99).String() != "unknown" || ProxyStatus(99).Err() == nil {
		t.Error("expected unknown status to be reported as an error")
	}
}
