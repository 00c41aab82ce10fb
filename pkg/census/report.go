package census

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport writes the census as a human-readable text report: one
// section per layer, listing each sub-population of the treatment group and
// then the control group as "<recovered> out of <size> people recovered".
// Layer 1 has a single unlabeled population and drops the label prefix.
func (c *Census) WriteReport(w io.Writer) error {
	for _, layer := range c.Layers {
		if _, err := fmt.Fprintf(w, "\n***LAYER %d***\n", layer.Number); err != nil {
			return err
		}

		if _, err := io.WriteString(w, "\nTREATMENT GROUP\n"); err != nil {
			return err
		}
		if err := writeGroup(w, layer.Treatment, layer.Number); err != nil {
			return err
		}

		if _, err := io.WriteString(w, "\nCONTROL GROUP\n"); err != nil {
			return err
		}
		if err := writeGroup(w, layer.Control, layer.Number); err != nil {
			return err
		}
	}
	return nil
}

// Report returns the text report as a string. See [Census.WriteReport].
func (c *Census) Report() string {
	var b strings.Builder
	_ = c.WriteReport(&b) // strings.Builder never fails
	return b.String()
}

func writeGroup(w io.Writer, group []Count, layerNumber int) error {
	for _, count := range group {
		var err error
		if layerNumber > 1 {
			_, err = fmt.Fprintf(w, "In sub-population %s, %s out of %s people recovered.\n",
				count.Label, count.Recovered, count.Size)
		} else {
			_, err = fmt.Fprintf(w, "%s out of %s people recovered.\n",
				count.Recovered, count.Size)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
