package exemption

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Regenerate rebuilds a canonical dataset from an existing one: every entry is
// kept by path only and marked as not requiring a test file. The result is
// sorted by path, and applying Regenerate to its own output changes nothing.
func Regenerate(dataset *Dataset) *Dataset {
	seen := make(map[string]bool, len(dataset.Exemptions))
	result := &Dataset{}
	for _, e := range dataset.Exemptions {
		p := normalize(e.Path)
		if seen[p] {
			continue
		}
		seen[p] = true
		result.Exemptions = append(result.Exemptions, Entry{
			Path:                p,
			TestFileNotRequired: true,
		})
	}

	sort.Slice(result.Exemptions, func(i, j int) bool {
		return result.Exemptions[i].Path < result.Exemptions[j].Path
	})
	return result
}

// Marshal renders the dataset in its stable textual form.
func Marshal(dataset *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(dataset); err != nil {
		return nil, fmt.Errorf("encode exemptions: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode exemptions: %w", err)
	}
	return buf.Bytes(), nil
}

// PrintRegenerated writes the regenerated form of the dataset at filename for manual review.
func PrintRegenerated(w io.Writer, filename string) error {
	dataset, err := LoadDataset(filename)
	if err != nil {
		return fmt.Errorf("load exemptions %s: %w", filename, err)
	}

	data, err := Marshal(Regenerate(dataset))
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Regenerated exemptions:\n\n")
	fmt.Fprintf(w, "%s", data)
	return nil
}
