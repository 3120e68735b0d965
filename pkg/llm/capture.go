package llm

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

type captureKey struct{}

// captureTransport buffers response bodies so the raw text survives a client that
// fails to decode it. The buffer is looked up from the request context, which keeps
// concurrent requests apart.
type captureTransport struct {
	base http.RoundTripper
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	buf, ok := req.Context().Value(captureKey{}).(*bytes.Buffer)
	if !ok {
		return resp, nil
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	buf.Write(body)
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if readErr != nil {
		return nil, readErr
	}
	return resp, nil
}

// withCapture returns a context whose HTTP responses are copied into the returned buffer.
func withCapture(ctx context.Context) (context.Context, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return context.WithValue(ctx, captureKey{}, buf), buf
}

func newCapturingClient() *http.Client {
	return &http.Client{Transport: &captureTransport{base: http.DefaultTransport}}
}
