// Package compose concatenates an extraction bundle into the final prompt
// file. It is collaborator glue around the core: the engine hands it ordered
// sections and never touches the destination itself.
package compose

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"failscope/internal/bundle"
)

const (
	instructionsFileName = "prompt_instructions.txt"
	failureSeparator     = "======================================================================"
)

// Composer renders bundles to text and writes the output file.
type Composer struct {
	projectRoot string
}

// NewComposer creates a composer rooted at the project directory, where it
// looks for optional instructions text.
func NewComposer(projectRoot string) *Composer {
	return &Composer{projectRoot: projectRoot}
}

// Render produces the full output text: optional instructions, then per
// failure its original report block followed by the extracted sections.
func (c *Composer) Render(b *bundle.Bundle) string {
	var content []string

	if instructions := c.readInstructions(); instructions != "" {
		content = append(content, "=== INSTRUCTIONS ===", instructions, "")
	}

	for i, fb := range b.Failures {
		content = append(content, "=== TEST OUTPUT ===", fb.Record.Raw, "")

		for _, diag := range fb.Diagnostics {
			content = append(content, "# "+diag, "")
		}

		for _, section := range fb.Sections {
			content = append(content, fmt.Sprintf("=== %s ===", section.File))
			if len(section.ImportLines) > 0 {
				content = append(content, formatImports(section.ImportLines))
			}
			content = append(content, "")

			for _, note := range section.Notes {
				content = append(content, "# warning: "+note, "")
			}
			for _, body := range section.Bodies {
				content = append(content, body.Code, "")
			}
			for _, label := range section.SeeAlso {
				content = append(content, "# "+label+" shown above", "")
			}
		}

		if i < len(b.Failures)-1 {
			content = append(content, failureSeparator, "")
		}
	}

	return strings.Join(content, "\n")
}

// WriteFile renders the bundle and writes it to the output path.
func (c *Composer) WriteFile(b *bundle.Bundle, outputPath string) error {
	if err := os.WriteFile(outputPath, []byte(c.Render(b)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}

// readInstructions loads prompt_instructions.txt from the project root.
// Absence is not an error.
func (c *Composer) readInstructions() string {
	path := filepath.Join(c.projectRoot, instructionsFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to read %s: %v", path, err)
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// formatImports trims each line but preserves extraction order; imports are
// never sorted.
func formatImports(imports []string) string {
	cleaned := make([]string, len(imports))
	for i, imp := range imports {
		cleaned[i] = strings.TrimSpace(imp)
	}
	return strings.Join(cleaned, "\n")
}
