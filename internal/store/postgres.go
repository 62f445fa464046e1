package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/recoverytrack/apiserver/internal/auth"
	"github.com/recoverytrack/apiserver/types"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

type rowScanner interface {
	Scan(dest ...any) error
}

// translateWriteError maps driver errors onto the store sentinels.
func translateWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return err
}

// PostgresStore implements Storage on top of the per-entity repositories.
// Ids come from the shared entity_id_seq sequence.
type PostgresStore struct {
	Users          *UserRepository
	MoodLogs       *MoodLogRepository
	Medications    *MedicationRepository
	MedicationLogs *MedicationLogRepository
	Resources      *ResourceRepository
	Community      *CommunityRepository
	Professionals  *ProfessionalRepository

	hasher auth.PasswordHasher
	now    func() time.Time
}

var _ Storage = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB, passwordCost int) *PostgresStore {
	return &PostgresStore{
		Users:          NewUserRepository(db),
		MoodLogs:       NewMoodLogRepository(db),
		Medications:    NewMedicationRepository(db),
		MedicationLogs: NewMedicationLogRepository(db),
		Resources:      NewResourceRepository(db),
		Community:      NewCommunityRepository(db),
		Professionals:  NewProfessionalRepository(db),
		hasher:         auth.NewPasswordHasher(passwordCost),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Register rejects taken identities before hashing. The unique constraints
// still catch a concurrent registration at insert time.
func (s *PostgresStore) Register(ctx context.Context, input types.RegisterUser) (types.User, error) {
	taken, err := s.Users.ExistsByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		return types.User{}, err
	}
	if taken {
		return types.User{}, ErrConflict
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return types.User{}, err
	}
	start := input.RecoveryStartDate
	return s.Users.Create(ctx, types.User{
		Username:          input.Username,
		PasswordHash:      hash,
		Email:             input.Email,
		AddictionTypes:    cloneStrings(input.AddictionTypes),
		RecoveryStartDate: &start,
		EmergencyContacts: []string{},
		CreatedAt:         s.now(),
	})
}

func (s *PostgresStore) Login(ctx context.Context, creds types.Credentials) (types.User, bool, error) {
	user, err := s.Users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.User{}, false, nil
		}
		return types.User{}, false, err
	}
	if !s.hasher.Matches(user.PasswordHash, creds.Password) {
		return types.User{}, false, nil
	}
	return user, true, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (types.User, error) {
	return s.Users.GetByID(ctx, id)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (types.User, error) {
	return s.Users.GetByUsername(ctx, username)
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id int64, patch types.UserPatch) (types.User, error) {
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	return s.Users.Update(ctx, patch.Apply(user))
}

func (s *PostgresStore) CreateMoodLog(ctx context.Context, input types.NewMoodLog) (types.MoodLog, error) {
	return s.MoodLogs.Create(ctx, types.MoodLog{
		UserID:       input.UserID,
		Mood:         input.Mood,
		CravingLevel: input.CravingLevel,
		Notes:        nonEmpty(input.Notes),
		Timestamp:    s.now(),
	})
}

func (s *PostgresStore) GetMoodLogsByUser(ctx context.Context, userID int64, limit int) ([]types.MoodLog, error) {
	return s.MoodLogs.ListByUser(ctx, userID, limit)
}

func (s *PostgresStore) CreateMedication(ctx context.Context, input types.NewMedication) (types.Medication, error) {
	return s.Medications.Create(ctx, types.Medication{
		UserID:    input.UserID,
		Name:      input.Name,
		Dosage:    input.Dosage,
		Frequency: input.Frequency,
		NextDose:  copyTime(input.NextDose),
		IsActive:  true,
	})
}

func (s *PostgresStore) GetMedication(ctx context.Context, id int64) (types.Medication, error) {
	return s.Medications.GetByID(ctx, id)
}

func (s *PostgresStore) GetMedicationsByUser(ctx context.Context, userID int64) ([]types.Medication, error) {
	return s.Medications.ListActiveByUser(ctx, userID)
}

func (s *PostgresStore) UpdateMedication(ctx context.Context, id int64, patch types.MedicationPatch) (types.Medication, error) {
	med, err := s.Medications.GetByID(ctx, id)
	if err != nil {
		return types.Medication{}, err
	}
	return s.Medications.Update(ctx, patch.Apply(med))
}

func (s *PostgresStore) CreateMedicationLog(ctx context.Context, input types.NewMedicationLog) (types.MedicationLog, error) {
	return s.MedicationLogs.Create(ctx, types.MedicationLog{
		MedicationID: input.MedicationID,
		UserID:       input.UserID,
		Taken:        input.Taken,
		Timestamp:    s.now(),
	})
}

func (s *PostgresStore) GetMedicationLogsByUser(ctx context.Context, userID int64) ([]types.MedicationLog, error) {
	return s.MedicationLogs.ListByUser(ctx, userID)
}

func (s *PostgresStore) GetAllResources(ctx context.Context) ([]types.Resource, error) {
	return s.Resources.ListActive(ctx, "")
}

func (s *PostgresStore) GetResourcesByCategory(ctx context.Context, category string) ([]types.Resource, error) {
	if category == "" {
		return []types.Resource{}, nil
	}
	return s.Resources.ListActive(ctx, category)
}

func (s *PostgresStore) CreateResource(ctx context.Context, input types.NewResource) (types.Resource, error) {
	return s.Resources.Create(ctx, types.Resource{
		Title:       input.Title,
		Type:        input.Type,
		Content:     input.Content,
		Description: copyString(input.Description),
		Duration:    copyString(input.Duration),
		Category:    input.Category,
		IsActive:    true,
	})
}

func (s *PostgresStore) SetResourceActive(ctx context.Context, id int64, active bool) (types.Resource, error) {
	return s.Resources.SetActive(ctx, id, active)
}

func (s *PostgresStore) GetAllCommunityPosts(ctx context.Context) ([]types.CommunityPost, error) {
	return s.Community.ListPosts(ctx)
}

func (s *PostgresStore) CreateCommunityPost(ctx context.Context, input types.NewCommunityPost) (types.CommunityPost, error) {
	return s.Community.CreatePost(ctx, types.CommunityPost{
		UserID:      input.UserID,
		Title:       input.Title,
		Content:     input.Content,
		IsAnonymous: input.IsAnonymous,
		Timestamp:   s.now(),
	})
}

func (s *PostgresStore) GetRepliesByPost(ctx context.Context, postID int64) ([]types.CommunityReply, error) {
	return s.Community.ListReplies(ctx, postID)
}

func (s *PostgresStore) CreateCommunityReply(ctx context.Context, input types.NewCommunityReply) (types.CommunityReply, error) {
	return s.Community.CreateReply(ctx, types.CommunityReply{
		PostID:      input.PostID,
		UserID:      input.UserID,
		Content:     input.Content,
		IsAnonymous: input.IsAnonymous,
		Timestamp:   s.now(),
	})
}

func (s *PostgresStore) GetAllProfessionals(ctx context.Context) ([]types.Professional, error) {
	return s.Professionals.ListActive(ctx)
}

func (s *PostgresStore) CreateProfessional(ctx context.Context, input types.NewProfessional) (types.Professional, error) {
	return s.Professionals.Create(ctx, types.Professional{
		Name:           input.Name,
		Type:           input.Type,
		Contact:        input.Contact,
		Availability:   copyString(input.Availability),
		Specialization: copyString(input.Specialization),
		IsActive:       true,
	})
}

func (s *PostgresStore) SetProfessionalActive(ctx context.Context, id int64, active bool) (types.Professional, error) {
	return s.Professionals.SetActive(ctx, id, active)
}
