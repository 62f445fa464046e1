package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/recoverytrack/apiserver/internal/auth"
	"github.com/recoverytrack/apiserver/types"
)

// MemoryStore keeps every entity in process memory. All entity types draw
// ids from one counter, so an id is unique across the whole store.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	now    func() time.Time
	hasher auth.PasswordHasher

	users            map[int64]types.User
	moodLogs         map[int64]types.MoodLog
	medications      map[int64]types.Medication
	medicationLogs   map[int64]types.MedicationLog
	resources        map[int64]types.Resource
	communityPosts   map[int64]types.CommunityPost
	communityReplies map[int64]types.CommunityReply
	professionals    map[int64]types.Professional
}

var _ Storage = (*MemoryStore)(nil)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for server-set timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPasswordCost sets the bcrypt cost used for stored credentials.
func WithPasswordCost(cost int) MemoryOption {
	return func(s *MemoryStore) {
		s.hasher = auth.NewPasswordHasher(cost)
	}
}

// NewMemoryStore builds an empty store and seeds the demo data.
func NewMemoryStore(opts ...MemoryOption) (*MemoryStore, error) {
	s := &MemoryStore{
		nextID:           1,
		now:              time.Now,
		hasher:           auth.NewPasswordHasher(0),
		users:            make(map[int64]types.User),
		moodLogs:         make(map[int64]types.MoodLog),
		medications:      make(map[int64]types.Medication),
		medicationLogs:   make(map[int64]types.MedicationLog),
		resources:        make(map[int64]types.Resource),
		communityPosts:   make(map[int64]types.CommunityPost),
		communityReplies: make(map[int64]types.CommunityReply),
		professionals:    make(map[int64]types.Professional),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := Seed(context.Background(), s, s.now()); err != nil {
		return nil, fmt.Errorf("seed memory store: %w", err)
	}
	return s, nil
}

// allocateID must be called with mu held for writing.
func (s *MemoryStore) allocateID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *MemoryStore) Register(_ context.Context, input types.RegisterUser) (types.User, error) {
	s.mu.RLock()
	taken := s.identityTakenLocked(input.Username, input.Email)
	s.mu.RUnlock()
	if taken {
		return types.User{}, ErrConflict
	}

	// Hash outside the lock; bcrypt is slow.
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return types.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another registration may have won while we were hashing.
	if s.identityTakenLocked(input.Username, input.Email) {
		return types.User{}, ErrConflict
	}

	start := input.RecoveryStartDate
	user := types.User{
		ID:                s.allocateID(),
		Username:          input.Username,
		PasswordHash:      hash,
		Email:             input.Email,
		AddictionTypes:    orEmpty(cloneStrings(input.AddictionTypes)),
		RecoveryStartDate: &start,
		EmergencyContacts: []string{},
		CreatedAt:         s.now(),
	}
	s.users[user.ID] = user
	return copyUser(user), nil
}

// identityTakenLocked must be called with mu held.
func (s *MemoryStore) identityTakenLocked(username, email string) bool {
	for _, existing := range s.users {
		if existing.Username == username || existing.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Login(_ context.Context, creds types.Credentials) (types.User, bool, error) {
	s.mu.RLock()
	var candidate types.User
	found := false
	for _, user := range s.users {
		if user.Username == creds.Username {
			candidate, found = user, true
			break
		}
	}
	s.mu.RUnlock()

	if !found || !s.hasher.Matches(candidate.PasswordHash, creds.Password) {
		return types.User{}, false, nil
	}
	return copyUser(candidate), true, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return copyUser(user), nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return copyUser(user), nil
		}
	}
	return types.User{}, ErrNotFound
}

func (s *MemoryStore) UpdateUser(_ context.Context, id int64, patch types.UserPatch) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range s.users {
			if otherID != id && other.Email == *patch.Email {
				return types.User{}, ErrConflict
			}
		}
	}

	updated := patch.Apply(user)
	s.users[id] = updated
	return copyUser(updated), nil
}

func (s *MemoryStore) CreateMoodLog(_ context.Context, input types.NewMoodLog) (types.MoodLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := types.MoodLog{
		ID:           s.allocateID(),
		UserID:       input.UserID,
		Mood:         input.Mood,
		CravingLevel: input.CravingLevel,
		Notes:        nonEmpty(input.Notes),
		Timestamp:    s.now(),
	}
	s.moodLogs[log.ID] = log
	return log, nil
}

func (s *MemoryStore) GetMoodLogsByUser(_ context.Context, userID int64, limit int) ([]types.MoodLog, error) {
	if limit <= 0 {
		limit = DefaultMoodLogLimit
	}

	s.mu.RLock()
	logs := make([]types.MoodLog, 0)
	for _, log := range s.moodLogs {
		if log.UserID == userID {
			logs = append(logs, log)
		}
	}
	s.mu.RUnlock()

	sort.Slice(logs, func(i, j int) bool {
		return newerFirst(logs[i].Timestamp, logs[i].ID, logs[j].Timestamp, logs[j].ID)
	})
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *MemoryStore) CreateMedication(_ context.Context, input types.NewMedication) (types.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med := types.Medication{
		ID:        s.allocateID(),
		UserID:    input.UserID,
		Name:      input.Name,
		Dosage:    input.Dosage,
		Frequency: input.Frequency,
		NextDose:  copyTime(input.NextDose),
		IsActive:  true,
	}
	s.medications[med.ID] = med
	return med, nil
}

func (s *MemoryStore) GetMedication(_ context.Context, id int64) (types.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	med, ok := s.medications[id]
	if !ok {
		return types.Medication{}, ErrNotFound
	}
	return med, nil
}

func (s *MemoryStore) GetMedicationsByUser(_ context.Context, userID int64) ([]types.Medication, error) {
	s.mu.RLock()
	meds := make([]types.Medication, 0)
	for _, med := range s.medications {
		if med.UserID == userID && med.IsActive {
			meds = append(meds, med)
		}
	}
	s.mu.RUnlock()

	sort.Slice(meds, func(i, j int) bool { return meds[i].ID < meds[j].ID })
	return meds, nil
}

func (s *MemoryStore) UpdateMedication(_ context.Context, id int64, patch types.MedicationPatch) (types.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med, ok := s.medications[id]
	if !ok {
		return types.Medication{}, ErrNotFound
	}
	updated := patch.Apply(med)
	s.medications[id] = updated
	return updated, nil
}

func (s *MemoryStore) CreateMedicationLog(_ context.Context, input types.NewMedicationLog) (types.MedicationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := types.MedicationLog{
		ID:           s.allocateID(),
		MedicationID: input.MedicationID,
		UserID:       input.UserID,
		Taken:        input.Taken,
		Timestamp:    s.now(),
	}
	s.medicationLogs[log.ID] = log
	return log, nil
}

func (s *MemoryStore) GetMedicationLogsByUser(_ context.Context, userID int64) ([]types.MedicationLog, error) {
	s.mu.RLock()
	logs := make([]types.MedicationLog, 0)
	for _, log := range s.medicationLogs {
		if log.UserID == userID {
			logs = append(logs, log)
		}
	}
	s.mu.RUnlock()

	sort.Slice(logs, func(i, j int) bool {
		return newerFirst(logs[i].Timestamp, logs[i].ID, logs[j].Timestamp, logs[j].ID)
	})
	return logs, nil
}

func (s *MemoryStore) GetAllResources(_ context.Context) ([]types.Resource, error) {
	return s.filterResources(func(types.Resource) bool { return true }), nil
}

func (s *MemoryStore) GetResourcesByCategory(_ context.Context, category string) ([]types.Resource, error) {
	if category == "" {
		return []types.Resource{}, nil
	}
	return s.filterResources(func(r types.Resource) bool { return r.Category == category }), nil
}

func (s *MemoryStore) filterResources(match func(types.Resource) bool) []types.Resource {
	s.mu.RLock()
	resources := make([]types.Resource, 0)
	for _, resource := range s.resources {
		if resource.IsActive && match(resource) {
			resources = append(resources, resource)
		}
	}
	s.mu.RUnlock()

	sort.Slice(resources, func(i, j int) bool { return resources[i].ID < resources[j].ID })
	return resources
}

func (s *MemoryStore) CreateResource(_ context.Context, input types.NewResource) (types.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resource := types.Resource{
		ID:          s.allocateID(),
		Title:       input.Title,
		Type:        input.Type,
		Content:     input.Content,
		Description: copyString(input.Description),
		Duration:    copyString(input.Duration),
		Category:    input.Category,
		IsActive:    true,
	}
	s.resources[resource.ID] = resource
	return resource, nil
}

func (s *MemoryStore) SetResourceActive(_ context.Context, id int64, active bool) (types.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resource, ok := s.resources[id]
	if !ok {
		return types.Resource{}, ErrNotFound
	}
	resource.IsActive = active
	s.resources[id] = resource
	return resource, nil
}

func (s *MemoryStore) GetAllCommunityPosts(_ context.Context) ([]types.CommunityPost, error) {
	s.mu.RLock()
	posts := make([]types.CommunityPost, 0, len(s.communityPosts))
	for _, post := range s.communityPosts {
		posts = append(posts, post)
	}
	s.mu.RUnlock()

	sort.Slice(posts, func(i, j int) bool {
		return newerFirst(posts[i].Timestamp, posts[i].ID, posts[j].Timestamp, posts[j].ID)
	})
	return posts, nil
}

func (s *MemoryStore) CreateCommunityPost(_ context.Context, input types.NewCommunityPost) (types.CommunityPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := types.CommunityPost{
		ID:          s.allocateID(),
		UserID:      input.UserID,
		Title:       input.Title,
		Content:     input.Content,
		IsAnonymous: input.IsAnonymous,
		Timestamp:   s.now(),
	}
	s.communityPosts[post.ID] = post
	return post, nil
}

func (s *MemoryStore) GetRepliesByPost(_ context.Context, postID int64) ([]types.CommunityReply, error) {
	s.mu.RLock()
	replies := make([]types.CommunityReply, 0)
	for _, reply := range s.communityReplies {
		if reply.PostID == postID {
			replies = append(replies, reply)
		}
	}
	s.mu.RUnlock()

	// Oldest first, unlike posts.
	sort.Slice(replies, func(i, j int) bool {
		return newerFirst(replies[j].Timestamp, replies[j].ID, replies[i].Timestamp, replies[i].ID)
	})
	return replies, nil
}

func (s *MemoryStore) CreateCommunityReply(_ context.Context, input types.NewCommunityReply) (types.CommunityReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply := types.CommunityReply{
		ID:          s.allocateID(),
		PostID:      input.PostID,
		UserID:      input.UserID,
		Content:     input.Content,
		IsAnonymous: input.IsAnonymous,
		Timestamp:   s.now(),
	}
	s.communityReplies[reply.ID] = reply
	return reply, nil
}

func (s *MemoryStore) GetAllProfessionals(_ context.Context) ([]types.Professional, error) {
	s.mu.RLock()
	professionals := make([]types.Professional, 0)
	for _, professional := range s.professionals {
		if professional.IsActive {
			professionals = append(professionals, professional)
		}
	}
	s.mu.RUnlock()

	sort.Slice(professionals, func(i, j int) bool { return professionals[i].ID < professionals[j].ID })
	return professionals, nil
}

func (s *MemoryStore) CreateProfessional(_ context.Context, input types.NewProfessional) (types.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	professional := types.Professional{
		ID:             s.allocateID(),
		Name:           input.Name,
		Type:           input.Type,
		Contact:        input.Contact,
		Availability:   copyString(input.Availability),
		Specialization: copyString(input.Specialization),
		IsActive:       true,
	}
	s.professionals[professional.ID] = professional
	return professional, nil
}

func (s *MemoryStore) SetProfessionalActive(_ context.Context, id int64, active bool) (types.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	professional, ok := s.professionals[id]
	if !ok {
		return types.Professional{}, ErrNotFound
	}
	professional.IsActive = active
	s.professionals[id] = professional
	return professional, nil
}

// count returns the number of stored entities across all types.
func (s *MemoryStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users) + len(s.moodLogs) + len(s.medications) + len(s.medicationLogs) +
		len(s.resources) + len(s.communityPosts) + len(s.communityReplies) + len(s.professionals)
}

// newerFirst orders by timestamp descending, breaking ties by larger id.
func newerFirst(ta time.Time, ida int64, tb time.Time, idb int64) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return ida > idb
}

func copyUser(user types.User) types.User {
	user.AddictionTypes = cloneStrings(user.AddictionTypes)
	user.EmergencyContacts = cloneStrings(user.EmergencyContacts)
	user.RecoveryStartDate = copyTime(user.RecoveryStartDate)
	return user
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// nonEmpty maps a nil or empty string to nil.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return copyString(s)
}
