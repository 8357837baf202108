// Package frontmatter splits markdown documents that open with a YAML
// metadata block fenced by --- lines. Skill and agent definitions both
// use this layout.
package frontmatter

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Split separates content into the raw YAML metadata block and the
// markdown body. Documents that do not open with a delimiter have no
// metadata; the whole content comes back as the body, untrimmed.
func Split(content []byte) (meta []byte, body string, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, "", scanner.Err()
	}
	if strings.TrimSpace(scanner.Text()) != delimiter {
		return nil, string(content), nil
	}

	var metaBuf strings.Builder
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == delimiter {
			closed = true
			break
		}
		metaBuf.WriteString(line)
		metaBuf.WriteByte('\n')
	}
	if !closed {
		return nil, "", fmt.Errorf("unterminated frontmatter")
	}

	var bodyBuf strings.Builder
	for scanner.Scan() {
		bodyBuf.WriteString(scanner.Text())
		bodyBuf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, "", err
	}
	return []byte(metaBuf.String()), strings.TrimSpace(bodyBuf.String()), nil
}

// Decode unmarshals the metadata block into v and returns the body.
// Documents without metadata leave v untouched.
func Decode(content []byte, v any) (string, error) {
	meta, body, err := Split(content)
	if err != nil {
		return "", err
	}
	if len(meta) > 0 {
		if err := yaml.Unmarshal(meta, v); err != nil {
			return "", fmt.Errorf("invalid frontmatter: %w", err)
		}
	}
	return body, nil
}
