package scan

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrDecode marks a line that failed base64 or gzip decoding. The line
// is skipped; the file continues.
var ErrDecode = errors.New("line decode failed")

// DecodeLine turns one raw object line into UTF-8 document bytes:
// whitespace is stripped, the remainder base64-decoded (standard
// alphabet, padded), and the result gunzipped.
func DecodeLine(line string) ([]byte, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty line", ErrDecode)
	}

	compressed, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip header: %v", ErrDecode, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip body: %v", ErrDecode, err)
	}
	return raw, nil
}
