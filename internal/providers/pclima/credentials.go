package pclima

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	envToken      = "API_TOKEN"
	envRCPath     = "PCLIMAAPI_RC"
	defaultRCFile = ".pclimaAPIrc"
	rcTokenKey    = "token"
)

// ResolveToken returns the first token found in the explicit argument, the
// API_TOKEN variable and the rc file. The rc file is rcPath when set, then
// PCLIMAAPI_RC, then ~/.pclimaAPIrc.
func ResolveToken(explicit, rcPath string) (string, error) {
	if token := strings.TrimSpace(explicit); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(os.Getenv(envToken)); token != "" {
		return token, nil
	}

	path := rcFilePath(rcPath)
	if path == "" {
		return "", &CredentialError{Err: ErrMissingToken}
	}
	config, err := readRC(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", &CredentialError{Path: path, Err: err}
	}
	if token := config[rcTokenKey]; token != "" {
		return token, nil
	}
	return "", &CredentialError{Path: path, Err: ErrMissingToken}
}

func rcFilePath(explicit string) string {
	if path := strings.TrimSpace(explicit); path != "" {
		return path
	}
	if path := strings.TrimSpace(os.Getenv(envRCPath)); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultRCFile)
}

// readRC parses "key: value" lines. Lines without a colon are ignored and
// the last occurrence of a key wins.
func readRC(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key != rcTokenKey {
			continue
		}
		config[key] = strings.TrimSpace(value)
	}
	return config, scanner.Err()
}
