package types

// Professional is a counselor, support group, or hotline users can reach out to.
type Professional struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// Type is e.g. "counselor", "therapist", "support_group", "hotline".
	Type string `json:"type" db:"type"`

	// Contact is a scheme-prefixed contact string such as "phone:988"
	// or "location:Community Center".
	Contact        string  `json:"contact" db:"contact"`
	Availability   *string `json:"availability" db:"availability"`
	Specialization *string `json:"specialization" db:"specialization"`
	IsActive       bool    `json:"isActive" db:"is_active"`
}

// NewProfessional is the insert shape for a professional.
type NewProfessional struct {
	Name           string
	Type           string
	Contact        string
	Availability   *string
	Specialization *string
}
