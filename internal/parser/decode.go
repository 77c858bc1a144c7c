package parser

import (
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/employee-contacts/internal/model"
)

// DecodeText converts an upload to UTF-8 text. A charset parameter on
// contentType wins; otherwise a UTF-8 or UTF-16 byte order mark is honored
// and stripped, and plain UTF-8 is assumed.
func DecodeText(content []byte, contentType string) (string, error) {
	if charset := charsetOf(contentType); charset != "" && !isUTF8(charset) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return "", model.InvalidCharset(charset, err)
		}
		out, _, err := transform.Bytes(enc.NewDecoder(), content)
		if err != nil {
			return "", model.InvalidCharset(charset, err)
		}
		return string(out), nil
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), content)
	if err != nil {
		return "", model.InvalidCharset("utf-8", err)
	}
	return string(out), nil
}

func charsetOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}

func isUTF8(charset string) bool {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8":
		return true
	}
	return false
}
