package engine

import (
	"crypto/tls"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/openai/openai-go/v3/option"

	"dictate/log"
)

// uploadMetrics breaks one engine request into network phases.
type uploadMetrics struct {
	DNS        time.Duration
	ConnWait   time.Duration
	TCP        time.Duration
	TLS        time.Duration
	ReqBody    time.Duration
	TTFB       time.Duration
	Total      time.Duration
	ConnReused bool
}

// newHTTPClient keeps connections to the engine warm between sessions.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// traceRequest wraps next with an httptrace and hands the phases to report
// once the response headers arrive. The hooks fire from net/http's read
// and write loops; mu guards every field they touch.
func traceRequest(req *http.Request, next option.MiddlewareNext, report func(uploadMetrics)) (*http.Response, error) {
	var mu sync.Mutex
	var m uploadMetrics
	var getConnStart, dnsStart, tcpStart, tlsStart, wroteHeaders, wroteRequest time.Time
	locked := func(fn func()) {
		mu.Lock()
		fn()
		mu.Unlock()
	}

	trace := &httptrace.ClientTrace{
		GetConn: func(string) { locked(func() { getConnStart = time.Now() }) },
		GotConn: func(info httptrace.GotConnInfo) {
			locked(func() {
				m.ConnWait = time.Since(getConnStart)
				m.ConnReused = info.Reused
			})
		},
		DNSStart:          func(httptrace.DNSStartInfo) { locked(func() { dnsStart = time.Now() }) },
		DNSDone:           func(httptrace.DNSDoneInfo) { locked(func() { m.DNS = time.Since(dnsStart) }) },
		ConnectStart:      func(_, _ string) { locked(func() { tcpStart = time.Now() }) },
		ConnectDone:       func(_, _ string, _ error) { locked(func() { m.TCP = time.Since(tcpStart) }) },
		TLSHandshakeStart: func() { locked(func() { tlsStart = time.Now() }) },
		TLSHandshakeDone:  func(tls.ConnectionState, error) { locked(func() { m.TLS = time.Since(tlsStart) }) },
		WroteHeaders:      func() { locked(func() { wroteHeaders = time.Now() }) },
		WroteRequest: func(httptrace.WroteRequestInfo) {
			locked(func() {
				wroteRequest = time.Now()
				m.ReqBody = wroteRequest.Sub(wroteHeaders)
			})
		},
		GotFirstResponseByte: func() { locked(func() { m.TTFB = time.Since(wroteRequest) }) },
	}

	start := time.Now()
	resp, err := next(req.WithContext(httptrace.WithClientTrace(req.Context(), trace)))
	if err != nil {
		return resp, err
	}
	mu.Lock()
	m.Total = time.Since(start)
	snapshot := m
	mu.Unlock()
	report(snapshot)
	return resp, nil
}

func logUpload(m uploadMetrics) {
	log.Upload(ms(m.DNS), ms(m.TCP), ms(m.TLS), ms(m.ReqBody), ms(m.TTFB), ms(m.Total), m.ConnReused)
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
