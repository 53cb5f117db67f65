// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package export writes finished artifacts to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Exporter writes content verbatim to named files inside a working output
// directory. Writes are single-attempt: a failure is returned to the caller,
// never retried or swallowed.
type Exporter struct {
	outputDir string
}

// New creates an Exporter rooted at outputDir. An empty outputDir means the
// current directory.
func New(outputDir string) *Exporter {
	if outputDir == "" {
		outputDir = "."
	}
	return &Exporter{outputDir: outputDir}
}

// OutputDir returns the configured output directory.
func (e *Exporter) OutputDir() string {
	return e.outputDir
}

// Export writes content to filename under the output directory, creating or
// truncating the file. The content is written exactly as given, UTF-8, with
// no added frontmatter. Returns the full path written.
func (e *Exporter) Export(content, filename string) (string, error) {
	if err := e.validateFilename(filename); err != nil {
		return "", err
	}

	fullPath := filepath.Join(e.outputDir, filename)

	if dir := filepath.Dir(fullPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", fullPath, err)
	}

	return fullPath, nil
}

// validateFilename rejects names that would escape the output directory.
func (e *Exporter) validateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename is required")
	}
	if filepath.IsAbs(filename) {
		return fmt.Errorf("absolute paths not allowed, use a name relative to the output directory")
	}

	cleaned := filepath.Clean(filename)
	if strings.Contains(cleaned, "..") {
		return fmt.Errorf("directory traversal not allowed (..)")
	}

	absPath, err := filepath.Abs(filepath.Join(e.outputDir, cleaned))
	if err != nil {
		return fmt.Errorf("invalid filename: %w", err)
	}
	absOutDir, err := filepath.Abs(e.outputDir)
	if err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}
	if absPath != absOutDir && !strings.HasPrefix(absPath, absOutDir+string(filepath.Separator)) {
		return fmt.Errorf("filename escapes output directory")
	}

	return nil
}
