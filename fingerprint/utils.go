package fingerprint

import (
	"fmt"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/extractors"
)

// buildLayout names every column: "tempo" for scalars, "centroid.mean" for
// one-dimensional series and "mfcc[3].skew" otherwise
func buildLayout(resolved []extractors.Extractor) []string {
	var layout []string
	for _, e := range resolved {
		if e.Scalar() {
			layout = append(layout, e.Name())
			continue
		}
		for d := range e.Dims() {
			prefix := e.Name()
			if e.Dims() > 1 {
				prefix = fmt.Sprintf("%s[%d]", e.Name(), d)
			}
			for _, stat := range stats.SummaryNames {
				layout = append(layout, prefix+"."+stat)
			}
		}
	}
	return layout
}
