package extractor

import (
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
)

// ErrDecode is matched by every DecodeError.
var ErrDecode = errors.New("body decode failed")

// DecodeError describes a body that could not be decoded cleanly with the
// requested charset. The decoded text returned next to it is still usable.
type DecodeError struct {
	Charset  string
	Fallback string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode body as '%s' failed, used %s: %v", e.Charset, e.Fallback, e.Err)
	}
	return fmt.Sprintf("decode body as '%s' failed, used %s", e.Charset, e.Fallback)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// DecodeBody converts a raw body to text. encodingHint may be a charset label
// ("windows-1252") or a full Content-Type value ("text/html; charset=koi8-r").
//
// Invalid UTF-8 sequences are dropped. When a named charset fails to decode,
// the body is read as ISO-8859-1, which maps every byte. The returned text is
// always usable; a non-nil error only reports that a fallback was taken.
func DecodeBody(body []byte, encodingHint string) (string, error) {
	label := charsetLabel(encodingHint)

	if label != "" && !isUTF8Label(label) {
		if enc, name := charset.Lookup(label); enc != nil {
			decoded, err := enc.NewDecoder().Bytes(body)
			if err == nil {
				return string(decoded), nil
			}
			return decodeLatin1(body), &DecodeError{Charset: name, Fallback: "iso-8859-1", Err: err}
		}
	}

	if utf8.Valid(body) {
		return string(body), nil
	}
	return strings.ToValidUTF8(string(body), ""), &DecodeError{Charset: "utf-8", Fallback: "utf-8 with invalid bytes dropped"}
}

func decodeLatin1(body []byte) string {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		// ISO-8859-1 covers every byte value; keep the raw bytes if x/text disagrees.
		return strings.ToValidUTF8(string(body), "")
	}
	return string(decoded)
}

func charsetLabel(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ""
	}
	if strings.Contains(hint, "/") || strings.Contains(hint, ";") {
		_, params, err := mime.ParseMediaType(hint)
		if err != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(params["charset"]))
	}
	return strings.ToLower(hint)
}

func isUTF8Label(label string) bool {
	switch label {
	case "utf-8", "utf8", "unicode-1-1-utf-8":
		return true
	}
	return false
}
