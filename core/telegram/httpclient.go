package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/anakalachikova-cmd/sterladometr-bot/core/telegram/netutil"
)

const (
	dialTimeout      = 5 * time.Second
	handshakeTimeout = 5 * time.Second
	headerSlack      = 5 * time.Second
	clientSlack      = 20 * time.Second
	connectRetries   = 2
	connectBackoff   = time.Second
)

// BuildHTTPClient returns the client for Telegram API calls. getUpdates
// holds the response for up to pollTimeout, so both the header and the
// overall deadline stretch past it.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	if pollTimeout < 0 {
		pollTimeout = 0
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   handshakeTimeout,
		ResponseHeaderTimeout: pollTimeout + headerSlack,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   pollTimeout + clientSlack,
		Transport: &connectRetry{base: transport, retries: connectRetries, backoff: connectBackoff},
	}
}

// connectRetry repeats a request only when the connection could not be
// opened, so a message Telegram may already have received is never sent
// twice. Other failures are left to the sender's own retry policy.
type connectRetry struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *connectRetry) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; attempt <= t.retries && err != nil && notConnected(err); attempt++ {
		if req.Body != nil && req.GetBody == nil {
			return nil, err
		}
		timer := time.NewTimer(t.backoff * time.Duration(attempt))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}

		next := req.Clone(req.Context())
		if req.GetBody != nil {
			body, berr := req.GetBody()
			if berr != nil {
				return nil, berr
			}
			next.Body = body
		}
		resp, err = t.base.RoundTrip(next)
	}
	return resp, err
}

func notConnected(err error) bool {
	switch netutil.Classify(err) {
	case netutil.KindDial, netutil.KindDNS:
		return true
	}
	return false
}
