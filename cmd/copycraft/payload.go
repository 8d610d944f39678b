package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPayload is returned for payload files that cannot be read as a
// single YAML or JSON document.
var ErrInvalidPayload = errors.New("invalid payload file")

// readPayload reads a YAML or JSON document from path, or from stdin when
// path is "-". JSON is valid YAML, so one decoder serves both.
func readPayload(stdin io.Reader, path string) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	var payload any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidPayload)
	}
	return payload, nil
}
