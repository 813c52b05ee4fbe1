package report

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteText prints the summary as an aligned table.
func WriteText(w io.Writer, s *Summary, corrupt int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "--- Analysis of %d frames completed ---\n", s.Frames)
	if corrupt > 0 {
		fmt.Fprintf(tw, "Skipped files:\t%d\n", corrupt)
	}
	fmt.Fprintf(tw, "Detections:\t%d\n", s.Detections)
	fmt.Fprintf(tw, "Unique objects:\t%d\n", len(s.Objects))

	fmt.Fprintln(tw, "\nClass\tDetections\tUnique objects")
	for _, c := range allClassesPresent(s) {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", c, s.ClassCounts[c], s.UniqueCounts[c])
	}

	if len(s.Objects) > 0 {
		var longest UniqueObject
		for _, o := range s.Objects {
			if o.Frames > longest.Frames {
				longest = o
			}
		}
		fmt.Fprintf(tw, "\nLongest track:\tobject %d (%s), %d frames\n", longest.ID, longest.Class, longest.Frames)
	}
	return tw.Flush()
}
