package proxyring

import (
	"context"
	"fmt"
	"net"
	"net/http"

	xproxy "golang.org/x/net/proxy"
)

// Transport builds an http.RoundTripper that egresses through the proxy.
// http/https proxies go through the standard CONNECT path, socks5 through
// a x/net/proxy dialer.
func (p Proxy) Transport() (*http.Transport, error) {
	switch p.Url.Scheme {
	case "http", "https":
		return &http.Transport{
			Proxy: http.ProxyURL(p.Url),
		}, nil
	case "socks5":
		var auth *xproxy.Auth
		if p.Url.User != nil {
			password, _ := p.Url.User.Password()
			auth = &xproxy.Auth{
				User:     p.Url.User.Username(),
				Password: password,
			}
		}
		dialer, err := xproxy.SOCKS5("tcp", p.Url.Host, auth, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer for %s: %w", p.Redacted(), err)
		}
		return &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(xproxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}, nil
	}
	return nil, fmt.Errorf("unsupported proxy scheme %q", p.Url.Scheme)
}

// String omits credentials so it is safe to log.
func (p Proxy) String() string {
	return fmt.Sprintf("%s://%s", p.Url.Scheme, p.Url.Host)
}
