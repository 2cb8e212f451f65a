package census

import "time"

// FilterByDateAndSpecialty projects the unified sequence to rows whose
// effective timestamp falls on target's calendar day and, when specialty is
// non-empty, whose specialty matches exactly. Order-preserving and pure.
//
// The day match compares decomposed year/month/day components: the record
// timestamp is converted into loc first, while target contributes its date
// components as given. Comparing components rather than truncating to UTC
// days keeps late-evening records on the correct local day when the stored
// offset differs from loc.
func FilterByDateAndSpecialty(records []UnifiedRecord, target time.Time, specialty string, loc *time.Location) []UnifiedRecord {
	if loc == nil {
		loc = time.UTC
	}
	ty, tm, td := target.Date()

	out := make([]UnifiedRecord, 0, len(records))
	for _, r := range records {
		y, m, d := r.AdmittedAt.In(loc).Date()
		if y != ty || m != tm || d != td {
			continue
		}
		if specialty != "" && r.Specialty != specialty {
			continue
		}
		out = append(out, r)
	}
	return out
}
