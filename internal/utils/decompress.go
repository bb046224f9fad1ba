package utils

import (
	"compress/gzip"
	"io"

	"github.com/andybalholm/brotli"
)

// acceptEncodings is the Accept-Encoding value sent on synchronous requests.
// Model catalogs and large completions compress well, and gateways such as
// OpenRouter serve brotli when offered.
const acceptEncodings = "gzip, br"

// DecompressReader wraps body with the decoder matching contentEncoding.
// Unknown or empty encodings return body unchanged. The caller remains
// responsible for closing the original body.
func DecompressReader(body io.Reader, contentEncoding string) (io.Reader, error) {
	switch contentEncoding {
	case "gzip":
		gzipReader, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		return gzipReader, nil
	case "br":
		return brotli.NewReader(body), nil
	default:
		return body, nil
	}
}
