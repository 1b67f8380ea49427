// Package apollo implements the vendor API collaborator: request shaping,
// pagination, record mapping, and persistence of discovered organizations.
package apollo

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credentials carries the browser-captured cookies and headers the vendor
// API requires. Both files must exist before a run starts; a missing file is
// a precondition failure, not a per-item one.
type Credentials struct {
	Cookies map[string]string
	Headers map[string]string
}

// LoadCredentials reads both credential files.
func LoadCredentials(cookiesFile, headersFile string) (Credentials, error) {
	cookies, err := loadJSONMap(cookiesFile)
	if err != nil {
		return Credentials{}, fmt.Errorf("load cookies file: %w", err)
	}
	headers, err := loadJSONMap(headersFile)
	if err != nil {
		return Credentials{}, fmt.Errorf("load headers file: %w", err)
	}
	return Credentials{Cookies: cookies, Headers: headers}, nil
}

func loadJSONMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}
