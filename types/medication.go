package types

import "time"

// Medication is a recurring prescription tracked for a user.
// Medications are never deleted; they are deactivated instead.
type Medication struct {
	// ID is the unique identifier of the medication.
	ID int64 `json:"id" db:"id"`

	// UserID references the user taking the medication.
	UserID int64 `json:"userId" db:"user_id"`

	// Name is the medication name as prescribed.
	Name string `json:"name" db:"name"`

	// Dosage is the prescribed amount per dose (e.g., "8mg").
	Dosage string `json:"dosage" db:"dosage"`

	// Frequency describes the schedule (e.g., "daily", "twice_daily").
	Frequency string `json:"frequency" db:"frequency"`

	// NextDose is when the next dose is due, if scheduled.
	NextDose *time.Time `json:"nextDose" db:"next_dose"`

	// IsActive is false once the medication has been discontinued.
	IsActive bool `json:"isActive" db:"is_active"`
}

// NewMedication is the insert shape for a medication.
type NewMedication struct {
	UserID    int64
	Name      string
	Dosage    string
	Frequency string
	NextDose  *time.Time
}

// MedicationPatch enumerates the medication fields that may be updated.
type MedicationPatch struct {
	Name      *string
	Dosage    *string
	Frequency *string
	NextDose  *time.Time
	IsActive  *bool
}

// Apply merges the non-nil patch fields over med and returns the result.
func (p MedicationPatch) Apply(med Medication) Medication {
	if p.Name != nil {
		med.Name = *p.Name
	}
	if p.Dosage != nil {
		med.Dosage = *p.Dosage
	}
	if p.Frequency != nil {
		med.Frequency = *p.Frequency
	}
	if p.NextDose != nil {
		next := *p.NextDose
		med.NextDose = &next
	}
	if p.IsActive != nil {
		med.IsActive = *p.IsActive
	}
	return med
}

// MedicationLog records whether a scheduled dose was taken.
type MedicationLog struct {
	// ID is the unique identifier of the log entry.
	ID int64 `json:"id" db:"id"`

	// MedicationID references the medication the dose belongs to.
	MedicationID int64 `json:"medicationId" db:"medication_id"`

	// UserID references the user who logged the dose.
	UserID int64 `json:"userId" db:"user_id"`

	// Taken is true when the dose was taken and false when it was missed.
	Taken bool `json:"taken" db:"taken"`

	// Timestamp is set by the server when the entry is created.
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// NewMedicationLog is the insert shape for a medication log.
type NewMedicationLog struct {
	MedicationID int64
	UserID       int64
	Taken        bool
}
