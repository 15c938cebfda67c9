package login

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ReadCode reads one line from r holding the base64-encoded query string
// the finish page shows, and returns its code parameter.
func ReadCode(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	return DecodeCode(line)
}

// DecodeCode extracts the authorization code from a base64-encoded query string.
func DecodeCode(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", &CodeDecodeError{Err: err}
	}
	if !utf8.Valid(raw) {
		return "", &CodeDecodeError{Err: errors.New("decoded value is not valid UTF-8")}
	}

	values, err := url.ParseQuery(strings.TrimPrefix(string(raw), "?"))
	if err != nil {
		return "", &CodeDecodeError{Err: err}
	}
	code := values.Get("code")
	if code == "" {
		return "", ErrCodeNotFound
	}
	return code, nil
}
