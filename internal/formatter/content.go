package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/vorplay/internal/sections"
)

// RenderContent writes section content as plain text. Numbered items carry their deep link so a follow-up
// `vorplay open` can reach them.
func RenderContent(w io.Writer, content *sections.Content) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", content.Title)
	b.WriteString(strings.Repeat("=", max(len([]rune(content.Title)), 3)) + "\n")
	for _, line := range content.Summary {
		fmt.Fprintf(&b, "%s\n", line)
	}

	if len(content.Items) == 0 {
		if content.Empty != "" {
			fmt.Fprintf(&b, "\n%s\n", content.Empty)
		}
	} else {
		b.WriteString("\n")
	}

	for i, item := range content.Items {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, item.Title)
		if item.Description != "" {
			fmt.Fprintf(&b, "    %s\n", item.Description)
		}
		if item.Target != nil {
			fmt.Fprintf(&b, "    -> %s\n", item.Target.Encode())
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
