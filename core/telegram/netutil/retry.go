// Package netutil classifies failures of Telegram API calls.
package netutil

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Error kinds reported by Classify.
const (
	KindTimeout = "timeout"
	KindDNS     = "dns"
	KindDial    = "dial"
	KindTLS     = "tls"
	KindFlood   = "flood"
	KindHTTP4xx = "http_4xx"
	KindHTTP5xx = "http_5xx"
	KindUnknown = "unknown"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// ShouldRetry reports whether err is a transient transport failure: a
// timeout, a failed dial or a 5xx from the API.
func ShouldRetry(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindDial, KindHTTP5xx:
		return true
	}
	return false
}

// RetryAfter returns the wait Telegram asked for when it rejected a call
// with 429 Too Many Requests.
func RetryAfter(err error) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	return 0, false
}

// Classify names the kind of failure behind err for logs and retry
// decisions. It returns "" for a nil error.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindDial
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return KindTimeout
	}
	var alert tls.AlertError
	if errors.As(err, &alert) {
		return KindTLS
	}

	switch code := StatusCode(err); {
	case code == http.StatusTooManyRequests:
		return KindFlood
	case code >= 500:
		return KindHTTP5xx
	case code >= 400:
		return KindHTTP4xx
	}
	return KindUnknown
}

// StatusCode extracts the HTTP status Telegram answered with, or 0.
func StatusCode(err error) int {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return http.StatusTooManyRequests
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var groupErr tele.GroupError
	if errors.As(err, &groupErr) {
		return http.StatusBadRequest
	}
	// "telegram: chat not found (400)"
	msg := err.Error()
	open, end := strings.LastIndex(msg, "("), strings.LastIndex(msg, ")")
	if open >= 0 && end > open+1 {
		if code, convErr := strconv.Atoi(strings.TrimSpace(msg[open+1 : end])); convErr == nil {
			return code
		}
	}
	return 0
}

// Redact hides bot tokens that may appear in request URLs inside err.
func Redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
