package upstream

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// codecTransport wraps an http.RoundTripper, advertising gzip/brotli/zstd
// support and transparently decoding whichever encoding the upstream picked.
type codecTransport struct {
	base http.RoundTripper
}

func newCodecTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &codecTransport{base: base}
}

func (t *codecTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Work on a shallow clone so the caller's request headers stay untouched.
	clone := req.Clone(req.Context())
	if clone.Header.Get("Accept-Encoding") == "" {
		clone.Header.Set("Accept-Encoding", "gzip, br, zstd")
	}

	resp, err := t.base.RoundTrip(clone)
	if err != nil {
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	decoded, err := decodeBody(resp.Body, outerEncoding(resp.Header.Get("Content-Encoding")))
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	if decoded == nil {
		// Identity or unrecognized encoding; hand the body through untouched.
		return resp, nil
	}

	resp.Body = &decodedBody{reader: decoded, inner: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return resp, nil
}

// decodeBody returns a reader that decodes body according to encoding,
// or nil when no decoding is needed.
func decodeBody(body io.ReadCloser, encoding string) (io.ReadCloser, error) {
	switch encoding {
	case "gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil
	case "zstd":
		r, err := zstd.NewReader(body)
		if err != nil {
			return nil, err
		}
		return r.IOReadCloser(), nil
	}
	return nil, nil
}

// outerEncoding picks the outermost (last applied) coding from a
// Content-Encoding header, tolerating comma lists and stray whitespace.
func outerEncoding(header string) string {
	parts := strings.Split(header, ",")
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}

// decodedBody closes both the decoder and the underlying network body.
type decodedBody struct {
	reader io.ReadCloser
	inner  io.ReadCloser
}

func (d *decodedBody) Read(p []byte) (int, error) {
	return d.reader.Read(p)
}

func (d *decodedBody) Close() error {
	readerErr := d.reader.Close()
	if innerErr := d.inner.Close(); readerErr == nil {
		return innerErr
	}
	return readerErr
}
