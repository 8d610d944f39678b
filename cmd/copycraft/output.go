package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/phrazzld/copycraft-api/internal/marketing"
	"github.com/phrazzld/copycraft-api/internal/render"
)

const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
	formatHTML     = "html"
)

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatMarkdown, formatHTML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want json, markdown or html)", format)
}

// writeResult prints one flow result.
func writeResult(w io.Writer, format string, result any) error {
	if format == formatJSON {
		return writeJSON(w, result)
	}
	md, err := render.Markdown(result)
	if err != nil {
		return err
	}
	return writeMarkdown(w, format, md)
}

// writeResults prints the results of several flows in catalog order.
func writeResults(w io.Writer, format string, results map[string]any) error {
	if format == formatJSON {
		return writeJSON(w, results)
	}
	var sections []string
	for _, info := range marketing.Flows() {
		result, ok := results[info.Name]
		if !ok {
			continue
		}
		md, err := render.Markdown(result)
		if err != nil {
			return err
		}
		sections = append(sections, md)
	}
	return writeMarkdown(w, format, strings.Join(sections, "\n"))
}

func writeMarkdown(w io.Writer, format, md string) error {
	if format == formatHTML {
		html, err := render.ToHTML(md)
		if err != nil {
			return err
		}
		md = html
	}
	_, err := io.WriteString(w, md)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
