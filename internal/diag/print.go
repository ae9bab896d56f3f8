package diag

import (
	"fmt"
	"io"
)

// Fprint writes ds one per line, each followed by its related locations,
// and a summary line when anything was reported.
func Fprint(w io.Writer, ds []*Diagnostic) error {
	var errs, warns int
	for _, d := range ds {
		if _, err := fmt.Fprintln(w, d.Error()); err != nil {
			return err
		}
		for _, r := range d.Related {
			if _, err := fmt.Fprintf(w, "\t%s: note: %s\n", r.Span.Start, r.Msg); err != nil {
				return err
			}
		}
		if d.Severity == Error {
			errs++
		} else {
			warns++
		}
	}
	var err error
	switch {
	case errs > 0 && warns > 0:
		_, err = fmt.Fprintf(w, "%d error(s) and %d warning(s)\n", errs, warns)
	case errs > 0:
		_, err = fmt.Fprintf(w, "%d error(s)\n", errs)
	case warns > 0:
		_, err = fmt.Fprintf(w, "%d warning(s)\n", warns)
	}
	return err
}
