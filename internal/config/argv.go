package config

import (
	"fmt"
	"strings"
	"unicode"
)

// splitCameraCmd tokenizes a camera_cmd config value into an argv slice,
// honoring shell-style single/double quotes and backslash escapes so device
// paths with spaces survive. A blank or commented-out value yields nil,
// which disables frame capture.
func splitCameraCmd(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "#") {
		return nil, nil
	}

	var (
		argv    []string
		token   strings.Builder
		inToken bool
		quoteCh rune
		escaped bool
	)

	endToken := func() {
		if !inToken {
			return
		}
		argv = append(argv, token.String())
		token.Reset()
		inToken = false
	}

	for _, r := range value {
		switch {
		case escaped:
			token.WriteRune(r)
			inToken = true
			escaped = false
		case r == '\\':
			escaped = true
		case quoteCh != 0:
			if r == quoteCh {
				quoteCh = 0
				continue
			}
			token.WriteRune(r)
			inToken = true
		case r == '\'' || r == '"':
			quoteCh = r
			inToken = true
		case unicode.IsSpace(r):
			endToken()
		default:
			token.WriteRune(r)
			inToken = true
		}
	}

	if escaped {
		return nil, fmt.Errorf("camera command ends mid-escape: %q", value)
	}
	if quoteCh != 0 {
		return nil, fmt.Errorf("camera command has an unterminated quote: %q", value)
	}

	endToken()
	return argv, nil
}

// mustSplitCameraCmd is for compile-time default commands only.
func mustSplitCameraCmd(value string) []string {
	argv, err := splitCameraCmd(value)
	if err != nil {
		panic(err)
	}
	return argv
}
