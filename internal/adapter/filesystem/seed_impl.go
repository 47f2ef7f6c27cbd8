package filesystem

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var quotedString = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)'`)

// ReadSeeds reads activity URLs from a link list in any of the formats
// LinkWriter produces. Blank lines and # comments are ignored in text lists.
func ReadSeeds(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed list: %w", err)
	}
	trimmed := bytes.TrimSpace(data)

	switch {
	case len(trimmed) == 0:
		return nil, nil
	case trimmed[0] == '[':
		var urls []string
		if err := json.Unmarshal(trimmed, &urls); err != nil {
			return nil, fmt.Errorf("failed to parse JSON seed list %s: %w", path, err)
		}
		return urls, nil
	case bytes.Contains(trimmed, []byte("= [")) || bytes.Contains(trimmed, []byte("=[")):
		return pythonList(trimmed), nil
	default:
		return textList(trimmed)
	}
}

func pythonList(data []byte) []string {
	_, list, _ := bytes.Cut(data, []byte("["))
	var urls []string
	for _, m := range quotedString.FindAllSubmatch(list, -1) {
		u := m[1]
		if len(u) == 0 {
			u = m[2]
		}
		if len(u) > 0 {
			urls = append(urls, string(u))
		}
	}
	return urls
}

func textList(data []byte) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}
