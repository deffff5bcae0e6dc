package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/lu4p/cat"
)

var errNotRTF = errors.New(`extract RTF: missing {\rtf header`)

// extractRTF returns the text of an RTF document. cat sniffs the format from the
// content, so the header is checked first to keep other formats out.
func extractRTF(content []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(content, " \t\r\n"), []byte(`{\rtf`)) {
		return "", errNotRTF
	}
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract RTF: %w", err)
	}
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}
