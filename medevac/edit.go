package medevac

import (
	"fmt"
	"strings"
)

// =============================================================================
// EDIT OPERATIONS - Each returns a modified copy; the input is never touched
// =============================================================================

// AddExtension appends ext as extension N+1.
func AddExtension(r CaseRecord, ext Extension) (CaseRecord, error) {
	if len(r.Extensions) >= MaxExtensions {
		return r, fmt.Errorf("%w: case already has %d", ErrExtensionLimit, MaxExtensions)
	}
	out := r.Clone()
	ext.ExtensionNumber = len(out.Extensions) + 1
	ext.PerDiems = append([]ExtensionPerDiem(nil), ext.PerDiems...)
	out.Extensions = append(out.Extensions, ext)
	return out, nil
}

// RemoveExtension drops extension number n and renumbers the rest 1..N.
func RemoveExtension(r CaseRecord, n int) (CaseRecord, error) {
	if n < 1 || n > len(r.Extensions) {
		return r, fmt.Errorf("%w: %d", ErrExtensionNotFound, n)
	}
	out := r.Clone()
	out.Extensions = append(out.Extensions[:n-1], out.Extensions[n:]...)
	renumberExtensions(out.Extensions)
	return out, nil
}

// UpdateExtension replaces extension number n, keeping its number.
func UpdateExtension(r CaseRecord, n int, ext Extension) (CaseRecord, error) {
	if n < 1 || n > len(r.Extensions) {
		return r, fmt.Errorf("%w: %d", ErrExtensionNotFound, n)
	}
	out := r.Clone()
	ext.ExtensionNumber = n
	ext.PerDiems = append([]ExtensionPerDiem(nil), ext.PerDiems...)
	out.Extensions[n-1] = ext
	return out, nil
}

func renumberExtensions(exts []Extension) {
	for i := range exts {
		exts[i].ExtensionNumber = i + 1
	}
}

// SetAmendment adds the amendment, or replaces it when replace is true.
func SetAmendment(r CaseRecord, a Amendment, replace bool) (CaseRecord, error) {
	if len(r.Amendments) > 0 && !replace {
		return r, ErrAmendmentExists
	}
	out := r.Clone()
	out.Amendments = []Amendment{a}
	return out, nil
}

// RemoveAmendment drops the amendment.
func RemoveAmendment(r CaseRecord) (CaseRecord, error) {
	if len(r.Amendments) == 0 {
		return r, ErrAmendmentNotFound
	}
	out := r.Clone()
	out.Amendments = nil
	return out, nil
}

// AddPerDiem appends an initial per-diem line (at most four).
func AddPerDiem(r CaseRecord, pd PerDiem) (CaseRecord, error) {
	if len(r.PerDiems) >= MaxPerDiemEntries {
		return r, ErrPerDiemLimit
	}
	out := r.Clone()
	out.PerDiems = append(out.PerDiems, pd)
	return out, nil
}

// RemovePerDiem drops the line at index; the last line cannot be removed.
func RemovePerDiem(r CaseRecord, index int) (CaseRecord, error) {
	if index < 0 || index >= len(r.PerDiems) {
		return r, fmt.Errorf("%w: %d", ErrPerDiemNotFound, index)
	}
	if len(r.PerDiems) <= MinPerDiemEntries {
		return r, ErrPerDiemMinimum
	}
	out := r.Clone()
	out.PerDiems = append(out.PerDiems[:index], out.PerDiems[index+1:]...)
	return out, nil
}

// Normalize repairs shapes a loosely-built record may arrive in: an empty
// per-diem list gets one blank line. Extension numbers are left alone so
// CheckContract still catches a caller that built them wrong.
func Normalize(r CaseRecord) CaseRecord {
	out := r.Clone()
	if len(out.PerDiems) == 0 {
		out.PerDiems = []PerDiem{{}}
	}
	return out
}

// FormatPatientName renders "LAST, FIRST". A missing part is dropped with
// its separator.
func FormatPatientName(last, first string) string {
	last = strings.ToUpper(strings.TrimSpace(last))
	first = strings.ToUpper(strings.TrimSpace(first))
	switch {
	case last == "":
		return first
	case first == "":
		return last
	default:
		return last + ", " + first
	}
}
