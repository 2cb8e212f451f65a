package census

// Unify merges an admissions block and a consultations block into one
// unified sequence: the admissions block first, then the consultations
// block, each preserving the descending recency order it arrived in. No
// re-sort, no deduplication: a patient with both an active admission and an
// active consultation appears as two distinct rows, and a later discharge
// acts on the selected row only.
func Unify(admissions []*Admission, consultations []*Consultation) ([]UnifiedRecord, error) {
	unified := make([]UnifiedRecord, 0, len(admissions)+len(consultations))

	for _, a := range admissions {
		unified = append(unified, UnifiedRecord{
			Origin:      OriginAdmission,
			MRN:         a.MRN,
			PatientName: a.PatientName,
			Specialty:   a.Specialty,
			Status:      a.Status,
			Diagnosis:   a.Diagnosis,
			AdmittedAt:  a.AdmittedAt,
			UpdatedAt:   a.UpdatedAt,
		})
	}

	for _, c := range consultations {
		if c.MRN == "" {
			return nil, &UnificationError{MRN: c.MRN, Field: "mrn"}
		}
		if c.CreatedAt.IsZero() {
			return nil, &UnificationError{MRN: c.MRN, Field: "created_at"}
		}
		unified = append(unified, UnifiedRecord{
			Origin:      OriginConsultation,
			MRN:         c.MRN,
			PatientName: c.PatientName,
			Specialty:   c.ConsultationSpecialty,
			Status:      c.Status,
			Diagnosis:   c.RequestingDepartment,
			AdmittedAt:  c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		})
	}

	return unified, nil
}
