package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RequestFile is the on-disk form of an analysis run: the request fields plus
// the options used to build its AnalysisConfig.
type RequestFile struct {
	Request AnalysisRequest `json:"request" yaml:"request"`
	Options ConfigOptions   `json:"config" yaml:"config"`
}

// LoadRequestFile reads a request file in YAML or JSON (chosen by extension).
// Options not present in the file keep DefaultConfigOptions values.
func LoadRequestFile(path string) (*RequestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file %s: %w", path, err)
	}
	return ParseRequestFile(data, filepath.Ext(path))
}

// ParseRequestFile decodes request file content. ext selects the format
// (".json" for JSON, anything else YAML).
func ParseRequestFile(data []byte, ext string) (*RequestFile, error) {
	file := &RequestFile{Options: DefaultConfigOptions("")}

	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, file); err != nil {
			return nil, fmt.Errorf("failed to parse JSON request: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, file); err != nil {
			return nil, fmt.Errorf("failed to parse YAML request: %w", err)
		}
	}

	if file.Request == nil {
		file.Request = AnalysisRequest{}
	}
	return file, nil
}

// Config builds the AnalysisConfig described by the file
func (f *RequestFile) Config() (AnalysisConfig, error) {
	return NewAnalysisConfig(f.Options)
}
