package types

import "time"

// User represents a person in recovery using the tracker.
// It contains identity, recovery profile, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int64 `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Email is the user's unique email address.
	Email string `json:"email" db:"email"`

	// AddictionTypes tags the substances or behaviors the user is
	// recovering from (e.g., "alcohol", "opioids").
	AddictionTypes []string `json:"addictionTypes" db:"addiction_types"`

	// RecoveryStartDate is the day the user's current recovery began.
	RecoveryStartDate *time.Time `json:"recoveryStartDate" db:"recovery_start_date"`

	// EmergencyContacts lists who the user wants reached in a crisis.
	EmergencyContacts []string `json:"emergencyContacts" db:"emergency_contacts"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// RegisterUser is the validated payload accepted by registration.
type RegisterUser struct {
	Username          string
	Password          string
	Email             string
	AddictionTypes    []string
	RecoveryStartDate time.Time
}

// Credentials is a username/password pair presented at login.
type Credentials struct {
	Username string
	Password string
}

// UserPatch enumerates the user fields that may be changed after
// registration. Nil fields are left untouched.
type UserPatch struct {
	Email             *string
	AddictionTypes    *[]string
	RecoveryStartDate *time.Time
	EmergencyContacts *[]string
}

// Apply merges the non-nil patch fields over user and returns the result.
func (p UserPatch) Apply(user User) User {
	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.AddictionTypes != nil {
		user.AddictionTypes = cloneStrings(*p.AddictionTypes)
	}
	if p.RecoveryStartDate != nil {
		start := *p.RecoveryStartDate
		user.RecoveryStartDate = &start
	}
	if p.EmergencyContacts != nil {
		user.EmergencyContacts = cloneStrings(*p.EmergencyContacts)
	}
	return user
}

// DaysInRecovery reports whole days elapsed between the recovery start and now.
func (u User) DaysInRecovery(now time.Time) int {
	if u.RecoveryStartDate == nil || now.Before(*u.RecoveryStartDate) {
		return 0
	}
	return int(now.Sub(*u.RecoveryStartDate).Hours() / 24)
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
