package scan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrParse marks document bytes that are not a valid scan document.
// The line is skipped; the file continues.
var ErrParse = errors.New("scan document parse failed")

// Parse decodes document bytes into a Document. Unknown fields are
// tolerated; only malformed JSON fails.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &doc, nil
}
