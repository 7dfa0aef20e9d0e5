// Package dump renders the annotated model as a compact text report,
// one line per entity, suitable for eyeballing or diffing between runs.
package dump

import (
	"fmt"
	"io"
	"strings"

	"docgen/internal/entity"
)

// WriteProject renders every file in order.
func WriteProject(w io.Writer, files []*entity.File) error {
	for i, f := range files {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeFile(w, f); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(w io.Writer, f *entity.File) error {
	if _, err := fmt.Fprintf(w, "F: %s\n", f.UFID); err != nil {
		return err
	}
	if f.Package != "" {
		if _, err := fmt.Fprintf(w, "  package %s\n", f.Package); err != nil {
			return err
		}
	}
	if len(f.Imports) > 0 {
		if _, err := fmt.Fprintf(w, "  imports: %s\n", strings.Join(f.Imports, ", ")); err != nil {
			return err
		}
	}
	for _, c := range f.Classes {
		if err := writeClass(w, c, "  "); err != nil {
			return err
		}
	}
	return nil
}

func writeClass(w io.Writer, c *entity.Class, indent string) error {
	if _, err := fmt.Fprintf(w, "%sC: %s%s\n", indent, c.Signature, annotation(c.Description, c.Confidence)); err != nil {
		return err
	}
	if c.AnnotateErr != "" {
		if _, err := fmt.Fprintf(w, "%s  ! annotation failed: %s\n", indent, c.AnnotateErr); err != nil {
			return err
		}
	}
	if len(c.Constants) > 0 {
		if _, err := fmt.Fprintf(w, "%s  constants: %s\n", indent, strings.Join(c.Constants, ", ")); err != nil {
			return err
		}
	}
	for _, fld := range c.SortedFields() {
		if _, err := fmt.Fprintf(w, "%s  %s\n", indent, fld.Signature); err != nil {
			return err
		}
	}
	for _, m := range c.SortedMethods() {
		if err := writeMethod(w, m, indent+"  "); err != nil {
			return err
		}
	}
	for _, nested := range c.SortedNested() {
		if err := writeClass(w, nested, indent+"  "); err != nil {
			return err
		}
	}
	return nil
}

func writeMethod(w io.Writer, m *entity.Method, indent string) error {
	if _, err := fmt.Fprintf(w, "%sM @L%d | %s%s\n", indent, m.Line, m.Signature, annotation(m.Description, m.Confidence)); err != nil {
		return err
	}
	for _, d := range m.Dependencies {
		tag := ""
		if d.Ambiguous {
			tag = " (ambiguous)"
		}
		if _, err := fmt.Fprintf(w, "%s  > %s [%s]%s\n", indent, d.TargetID, d.Tier, tag); err != nil {
			return err
		}
	}
	if len(m.Unresolved) > 0 {
		if _, err := fmt.Fprintf(w, "%s  ? %s\n", indent, strings.Join(m.Unresolved, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func annotation(desc string, confidence int) string {
	if desc == "" {
		return ""
	}
	return fmt.Sprintf("  // %s (%d%%)", desc, confidence)
}
