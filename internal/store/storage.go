package store

import (
	"context"

	"github.com/recoverytrack/apiserver/types"
)

// DefaultMoodLogLimit is applied when GetMoodLogsByUser is called with a
// non-positive limit.
const DefaultMoodLogLimit = 10

// Storage is every persistence operation the API may invoke. Implementations
// return ErrNotFound or ErrConflict for missing records and uniqueness
// violations and never encode transport concerns.
type Storage interface {
	// Auth
	Register(ctx context.Context, user types.RegisterUser) (types.User, error)
	// Login returns ok=false, with a nil error, when no user matches.
	Login(ctx context.Context, creds types.Credentials) (user types.User, ok bool, err error)

	// Users
	GetUser(ctx context.Context, id int64) (types.User, error)
	GetUserByUsername(ctx context.Context, username string) (types.User, error)
	UpdateUser(ctx context.Context, id int64, patch types.UserPatch) (types.User, error)

	// Mood logs
	CreateMoodLog(ctx context.Context, log types.NewMoodLog) (types.MoodLog, error)
	// GetMoodLogsByUser returns at most limit logs, newest first.
	GetMoodLogsByUser(ctx context.Context, userID int64, limit int) ([]types.MoodLog, error)

	// Medications
	CreateMedication(ctx context.Context, med types.NewMedication) (types.Medication, error)
	GetMedication(ctx context.Context, id int64) (types.Medication, error)
	// GetMedicationsByUser returns only active medications.
	GetMedicationsByUser(ctx context.Context, userID int64) ([]types.Medication, error)
	UpdateMedication(ctx context.Context, id int64, patch types.MedicationPatch) (types.Medication, error)

	// Medication logs
	CreateMedicationLog(ctx context.Context, log types.NewMedicationLog) (types.MedicationLog, error)
	GetMedicationLogsByUser(ctx context.Context, userID int64) ([]types.MedicationLog, error)

	// Resources
	GetAllResources(ctx context.Context) ([]types.Resource, error)
	// GetResourcesByCategory matches category exactly. An empty category
	// matches nothing.
	GetResourcesByCategory(ctx context.Context, category string) ([]types.Resource, error)
	CreateResource(ctx context.Context, resource types.NewResource) (types.Resource, error)
	SetResourceActive(ctx context.Context, id int64, active bool) (types.Resource, error)

	// Community
	// GetAllCommunityPosts returns posts newest first.
	GetAllCommunityPosts(ctx context.Context) ([]types.CommunityPost, error)
	CreateCommunityPost(ctx context.Context, post types.NewCommunityPost) (types.CommunityPost, error)
	// GetRepliesByPost returns replies oldest first. An unknown post yields
	// an empty list.
	GetRepliesByPost(ctx context.Context, postID int64) ([]types.CommunityReply, error)
	CreateCommunityReply(ctx context.Context, reply types.NewCommunityReply) (types.CommunityReply, error)

	// Professionals
	GetAllProfessionals(ctx context.Context) ([]types.Professional, error)
	CreateProfessional(ctx context.Context, professional types.NewProfessional) (types.Professional, error)
	SetProfessionalActive(ctx context.Context, id int64, active bool) (types.Professional, error)
}
