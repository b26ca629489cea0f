// Package render - the YAML content summary.
package render

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// contentLine mirrors one line's rhythm in the summary.
type contentLine struct {
	ID           int         `yaml:"id"`
	Measures     [][]float64 `yaml:"measures"`
	PauseIndices []int       `yaml:"pause_indices,omitempty"`
}

// contentGroup mirrors one group's pitch content.
type contentGroup struct {
	LineIDs   []int      `yaml:"line_ids"`
	Instances [][]string `yaml:"instances"`
}

// contentDoc is the document shape of WriteContentYAML.
type contentDoc struct {
	TemporalContent []contentLine  `yaml:"temporal_content"`
	SonicContent    []contentGroup `yaml:"sonic_content"`
}

// WriteContentYAML writes a compact YAML summary of f: the measure splits
// and pause indices of every line, and the instance pitch classes of every
// group, in sounding order.
//
// Errors: the encoder's error.
func WriteContentYAML(w io.Writer, f *fragment.Fragment) error {
	doc := contentDoc{
		TemporalContent: make([]contentLine, len(f.Lines)),
		SonicContent:    make([]contentGroup, len(f.Groups)),
	}
	for li := range f.Lines {
		line := &f.Lines[li]
		doc.TemporalContent[li] = contentLine{
			ID:           line.ID,
			Measures:     line.Measures,
			PauseIndices: line.PauseIndices,
		}
	}
	for gi := range f.Groups {
		g := &f.Groups[gi]
		cg := contentGroup{
			LineIDs:   make([]int, 0, len(g.LineIndices)),
			Instances: make([][]string, 0, len(g.Instances)),
		}
		for _, li := range g.LineIndices {
			cg.LineIDs = append(cg.LineIDs, f.Lines[li].ID)
		}
		for _, ai := range g.Instances {
			classes := f.Arena[ai].Classes
			names := make([]string, len(classes))
			for i, pc := range classes {
				names[i] = pc.String()
			}
			cg.Instances = append(cg.Instances, names)
		}
		doc.SonicContent[gi] = cg
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("render: encode content: %w", err)
	}

	return enc.Close()
}
