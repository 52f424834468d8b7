// Package main implements the genconfig tool that writes config.default.toml
// from config.ExampleConfig().
//
// It is invoked by go generate via the directive in internal/config/config.go.
package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"tools.zach/dev/runtracker/internal/config"
)

// outPath is relative to internal/config/, where go generate runs. The root
// package embeds the file from there.
const outPath = "../../config.default.toml"

func main() {
	result, err := render(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, []byte(result), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote config.default.toml\n")
}

// render encodes cfg as TOML and annotates it with docs: comments above each
// key, alternatives below, and a banner per section.
func render(cfg *config.Config, docs map[string]config.FieldDoc) (string, error) {
	var raw bytes.Buffer
	if err := toml.NewEncoder(&raw).Encode(cfg); err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	out := []string{
		"# ///////////////////////////////////////////////",
		"# runtracker Configuration",
		"# ///////////////////////////////////////////////",
		"",
	}

	var sectionStack []string
	emitted := map[string]bool{}

	for _, line := range strings.Split(raw.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "[[") {
			injectOmitted(&out, docs, sectionStack, emitted)

			section := strings.Trim(trimmed, "[] ")
			sectionStack = parseSectionPath(section)
			out = append(out, "", fmt.Sprintf("# ///// %s /////", sectionName(section)), "")
			out = appendComment(out, docs[section].Comment)
			out = append(out, trimmed)
			continue
		}

		if !strings.Contains(trimmed, "=") || strings.HasPrefix(trimmed, "#") {
			out = append(out, trimmed)
			continue
		}

		key := strings.TrimSpace(strings.SplitN(trimmed, "=", 2)[0])
		fullPath := key
		if len(sectionStack) > 0 {
			fullPath = strings.Join(sectionStack, ".") + "." + key
		}
		emitted[fullPath] = true

		doc := docs[fullPath]
		out = appendComment(out, doc.Comment)
		out = append(out, trimmed)
		for _, alt := range doc.Alternatives {
			out = append(out, "# "+alt)
		}
	}
	injectOmitted(&out, docs, sectionStack, emitted)

	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n", nil
}

// appendComment adds comment as "# " lines.
func appendComment(out []string, comment string) []string {
	if comment == "" {
		return out
	}
	for _, cl := range strings.Split(comment, "\n") {
		out = append(out, "# "+cl)
	}
	return out
}

// injectOmitted appends commented-out entries for docs keys in the current
// section that the encoder skipped, typically omitempty fields at their zero
// value. Keys are sorted for deterministic output.
func injectOmitted(out *[]string, docs map[string]config.FieldDoc, sectionStack []string, emitted map[string]bool) {
	if len(sectionStack) == 0 {
		return
	}
	prefix := strings.Join(sectionStack, ".") + "."

	var omitted []string
	for path := range docs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(rest, ".") || emitted[path] {
			continue
		}
		omitted = append(omitted, path)
	}
	sort.Strings(omitted)

	for _, path := range omitted {
		doc := docs[path]
		*out = append(*out, "")
		*out = appendComment(*out, doc.Comment)
		for _, alt := range doc.Alternatives {
			*out = append(*out, "# "+alt)
		}
		emitted[path] = true
	}
}

// parseSectionPath splits a dotted TOML section header into its segments.
func parseSectionPath(section string) []string {
	return strings.Split(section, ".")
}

// sectionName returns the last dotted segment of section with its first
// letter capitalized, e.g. "records" yields "Records".
func sectionName(section string) string {
	parts := strings.Split(section, ".")
	last := parts[len(parts)-1]
	if len(last) == 0 {
		return ""
	}
	return strings.ToUpper(last[:1]) + last[1:]
}
