package store

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/recoverytrack/apiserver/internal/auth"
	"github.com/recoverytrack/apiserver/types"
)

// tickingClock advances one minute on every call so creations are strictly ordered.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Minute)
		return current
	}
}

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore(
		WithPasswordCost(bcrypt.MinCost),
		WithClock(tickingClock(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))),
	)
	require.NoError(t, err)
	return s
}

func TestNewMemoryStoreSeedsDemoData(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, DemoUsername, user.Username)
	assert.Equal(t, DemoEmail, user.Email)
	assert.Equal(t, []string{"alcohol", "opioids"}, user.AddictionTypes)
	assert.Equal(t, []string{"emergency-services", "support-buddy"}, user.EmergencyContacts)
	require.NotNil(t, user.RecoveryStartDate)
	assert.Equal(t, 127, user.DaysInRecovery(user.RecoveryStartDate.Add(127*24*time.Hour)))

	resources, err := s.GetAllResources(ctx)
	require.NoError(t, err)
	require.Len(t, resources, 2)
	assert.Equal(t, int64(2), resources[0].ID)
	assert.Equal(t, "Understanding Triggers", resources[0].Title)
	assert.Equal(t, int64(3), resources[1].ID)

	professionals, err := s.GetAllProfessionals(ctx)
	require.NoError(t, err)
	require.Len(t, professionals, 3)
	assert.Equal(t, []int64{4, 5, 6}, []int64{professionals[0].ID, professionals[1].ID, professionals[2].ID})
	assert.Equal(t, "Crisis Hotline", professionals[2].Name)

	assert.Equal(t, 6, s.count())
}

func TestIDsAreUniqueAcrossEntityTypes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seen := map[int64]string{1: "user", 2: "resource", 3: "resource", 4: "professional", 5: "professional", 6: "professional"}
	record := func(kind string, id int64) {
		t.Helper()
		if prev, ok := seen[id]; ok {
			t.Fatalf("id %d assigned to both %s and %s", id, prev, kind)
		}
		seen[id] = kind
	}

	for i := 0; i < 3; i++ {
		mood, err := s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 1, Mood: 5, CravingLevel: types.CravingMild})
		require.NoError(t, err)
		record("mood", mood.ID)

		med, err := s.CreateMedication(ctx, types.NewMedication{UserID: 1, Name: "Naltrexone", Dosage: "50mg", Frequency: "daily"})
		require.NoError(t, err)
		record("medication", med.ID)

		medLog, err := s.CreateMedicationLog(ctx, types.NewMedicationLog{MedicationID: med.ID, UserID: 1, Taken: true})
		require.NoError(t, err)
		record("medication log", medLog.ID)

		post, err := s.CreateCommunityPost(ctx, types.NewCommunityPost{UserID: 1, Title: "Day one", Content: "hi"})
		require.NoError(t, err)
		record("post", post.ID)

		reply, err := s.CreateCommunityReply(ctx, types.NewCommunityReply{PostID: post.ID, UserID: 1, Content: "welcome"})
		require.NoError(t, err)
		record("reply", reply.ID)

		resource, err := s.CreateResource(ctx, types.NewResource{Title: "Breathing", Type: types.ResourceAudio, Content: "...", Category: "mindfulness"})
		require.NoError(t, err)
		record("resource", resource.ID)

		professional, err := s.CreateProfessional(ctx, types.NewProfessional{Name: "SMART Recovery", Type: "support_group", Contact: "url:smartrecovery.org"})
		require.NoError(t, err)
		record("professional", professional.ID)
	}

	assert.Len(t, seen, 6+3*7)
	assert.Equal(t, int64(len(seen)+1), s.nextID)
}

func TestConcurrentCreatesKeepIDsUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const workers = 16
	ids := make(chan int64, workers*10)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				log, err := s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 1, Mood: 7, CravingLevel: types.CravingNone})
				if err != nil {
					t.Error(err)
					return
				}
				ids <- log.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*10)
}

func TestRegisterConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Register(ctx, types.RegisterUser{Username: DemoUsername, Password: "whatever1", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Register(ctx, types.RegisterUser{Username: "someone", Password: "whatever1", Email: DemoEmail})
	assert.ErrorIs(t, err, ErrConflict)

	// Matching is case-sensitive.
	user, err := s.Register(ctx, types.RegisterUser{Username: "Demo_User", Password: "whatever1", Email: "Demo@example.com"})
	require.NoError(t, err)
	assert.Greater(t, user.ID, int64(6))
}

func TestRegisterChecksConflictBeforeHashing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	overlong := strings.Repeat("a", auth.MaxPasswordBytes+1)

	_, err := s.Register(ctx, types.RegisterUser{Username: DemoUsername, Password: overlong, Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Register(ctx, types.RegisterUser{Username: "jordan", Password: overlong, Email: "jordan@example.com"})
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)

	_, err = s.GetUserByUsername(ctx, "jordan")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterAssignsFreshIDAndDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mood, err := s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 1, Mood: 4, CravingLevel: types.CravingModerate})
	require.NoError(t, err)

	start := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)
	user, err := s.Register(ctx, types.RegisterUser{
		Username:          "river",
		Password:          "longenough",
		Email:             "river@example.com",
		AddictionTypes:    []string{"gambling"},
		RecoveryStartDate: start,
	})
	require.NoError(t, err)

	assert.Greater(t, user.ID, mood.ID)
	assert.Equal(t, []string{}, user.EmergencyContacts)
	assert.Equal(t, []string{"gambling"}, user.AddictionTypes)
	require.NotNil(t, user.RecoveryStartDate)
	assert.True(t, start.Equal(*user.RecoveryStartDate))
	assert.False(t, user.CreatedAt.IsZero())
	assert.NotEqual(t, "longenough", user.PasswordHash)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user, ok, err := s.Login(ctx, types.Credentials{Username: DemoUsername, Password: DemoPassword})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), user.ID)

	_, ok, err = s.Login(ctx, types.Credentials{Username: DemoUsername, Password: "password124"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Login(ctx, types.Credentials{Username: "nobody", Password: DemoPassword})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUserNotFound(t *testing.T) {
	_, err := newTestStore(t).GetUser(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserMergesPatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	contacts := []string{"sponsor"}
	email := "new-demo@example.com"
	updated, err := s.UpdateUser(ctx, 1, types.UserPatch{Email: &email, EmergencyContacts: &contacts})
	require.NoError(t, err)

	assert.Equal(t, email, updated.Email)
	assert.Equal(t, contacts, updated.EmergencyContacts)
	assert.Equal(t, DemoUsername, updated.Username)
	assert.Equal(t, []string{"alcohol", "opioids"}, updated.AddictionTypes)

	fetched, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, updated, fetched)

	// The caller's slice must not alias stored state.
	contacts[0] = "mutated"
	fetched, err = s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"sponsor"}, fetched.EmergencyContacts)
}

func TestUpdateUserEmailConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	other, err := s.Register(ctx, types.RegisterUser{Username: "sam", Password: "longenough", Email: "sam@example.com"})
	require.NoError(t, err)

	email := DemoEmail
	_, err = s.UpdateUser(ctx, other.ID, types.UserPatch{Email: &email})
	assert.ErrorIs(t, err, ErrConflict)

	// Re-saving one's own email is fine.
	_, err = s.UpdateUser(ctx, 1, types.UserPatch{Email: &email})
	assert.NoError(t, err)
}

func TestUpdateMissingLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	before := s.count()
	nextBefore := s.nextID

	email := "ghost@example.com"
	_, err := s.UpdateUser(ctx, 404, types.UserPatch{Email: &email})
	assert.ErrorIs(t, err, ErrNotFound)

	active := false
	_, err = s.UpdateMedication(ctx, 404, types.MedicationPatch{IsActive: &active})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, before, s.count())
	assert.Equal(t, nextBefore, s.nextID)
}

func TestGetMoodLogsByUserNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var created []types.MoodLog
	for mood := 1; mood <= 3; mood++ {
		log, err := s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 1, Mood: mood, CravingLevel: types.CravingNone})
		require.NoError(t, err)
		created = append(created, log)
	}
	_, err := s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 2, Mood: 9, CravingLevel: types.CravingNone})
	require.NoError(t, err)

	logs, err := s.GetMoodLogsByUser(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, created[2].ID, logs[0].ID)
	assert.Equal(t, created[1].ID, logs[1].ID)

	all, err := s.GetMoodLogsByUser(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetMoodLogsDefaultLimitIsTen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 12; i++ {
		_, err := s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 1, Mood: 6, CravingLevel: types.CravingMild})
		require.NoError(t, err)
	}

	logs, err := s.GetMoodLogsByUser(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, logs, DefaultMoodLogLimit)
}

func TestMoodLogTiesBreakByID(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewMemoryStore(WithPasswordCost(bcrypt.MinCost), WithClock(func() time.Time { return frozen }))
	require.NoError(t, err)

	first, err := s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 1, Mood: 2, CravingLevel: types.CravingStrong})
	require.NoError(t, err)
	second, err := s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 1, Mood: 3, CravingLevel: types.CravingStrong})
	require.NoError(t, err)

	logs, err := s.GetMoodLogsByUser(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, second.ID, logs[0].ID)
	assert.Equal(t, first.ID, logs[1].ID)
}

func TestCreateMoodLogNormalizesNotes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty := ""
	log, err := s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 1, Mood: 5, CravingLevel: types.CravingNone, Notes: &empty})
	require.NoError(t, err)
	assert.Nil(t, log.Notes)

	note := "went to a meeting"
	log, err = s.CreateMoodLog(ctx, types.NewMoodLog{UserID: 1, Mood: 8, CravingLevel: types.CravingNone, Notes: &note})
	require.NoError(t, err)
	require.NotNil(t, log.Notes)
	assert.Equal(t, note, *log.Notes)
}

func TestRepliesAscendingPostsDescending(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p1, err := s.CreateCommunityPost(ctx, types.NewCommunityPost{UserID: 1, Title: "P1", Content: "first", IsAnonymous: true})
	require.NoError(t, err)
	p2, err := s.CreateCommunityPost(ctx, types.NewCommunityPost{UserID: 1, Title: "P2", Content: "second"})
	require.NoError(t, err)

	r1, err := s.CreateCommunityReply(ctx, types.NewCommunityReply{PostID: p1.ID, UserID: 1, Content: "R1"})
	require.NoError(t, err)
	r2, err := s.CreateCommunityReply(ctx, types.NewCommunityReply{PostID: p1.ID, UserID: 1, Content: "R2"})
	require.NoError(t, err)
	_, err = s.CreateCommunityReply(ctx, types.NewCommunityReply{PostID: p2.ID, UserID: 1, Content: "elsewhere"})
	require.NoError(t, err)

	replies, err := s.GetRepliesByPost(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, []int64{r1.ID, r2.ID}, []int64{replies[0].ID, replies[1].ID})

	posts, err := s.GetAllCommunityPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, []int64{p2.ID, p1.ID}, []int64{posts[0].ID, posts[1].ID})
}

func TestRepliesForUnknownPostIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	reply, err := s.CreateCommunityReply(ctx, types.NewCommunityReply{PostID: 777, UserID: 1, Content: "orphan"})
	require.NoError(t, err)

	replies, err := s.GetRepliesByPost(ctx, 778)
	require.NoError(t, err)
	assert.Empty(t, replies)

	replies, err = s.GetRepliesByPost(ctx, 777)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, reply.ID, replies[0].ID)
}

func TestDeactivatedMedicationHiddenFromListing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	kept, err := s.CreateMedication(ctx, types.NewMedication{UserID: 1, Name: "Buprenorphine", Dosage: "8mg", Frequency: "daily"})
	require.NoError(t, err)
	assert.True(t, kept.IsActive)
	stopped, err := s.CreateMedication(ctx, types.NewMedication{UserID: 1, Name: "Acamprosate", Dosage: "666mg", Frequency: "three_times_daily"})
	require.NoError(t, err)

	inactive := false
	updated, err := s.UpdateMedication(ctx, stopped.ID, types.MedicationPatch{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	meds, err := s.GetMedicationsByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, kept.ID, meds[0].ID)

	direct, err := s.GetMedication(ctx, stopped.ID)
	require.NoError(t, err)
	stopped.IsActive = false
	assert.Equal(t, stopped, direct)
}

func TestUpdateMedicationMergesPatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	med, err := s.CreateMedication(ctx, types.NewMedication{UserID: 1, Name: "Naltrexone", Dosage: "50mg", Frequency: "daily"})
	require.NoError(t, err)

	dosage := "25mg"
	next := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	updated, err := s.UpdateMedication(ctx, med.ID, types.MedicationPatch{Dosage: &dosage, NextDose: &next})
	require.NoError(t, err)

	assert.Equal(t, "Naltrexone", updated.Name)
	assert.Equal(t, "25mg", updated.Dosage)
	assert.Equal(t, "daily", updated.Frequency)
	require.NotNil(t, updated.NextDose)
	assert.True(t, next.Equal(*updated.NextDose))
	assert.True(t, updated.IsActive)
}

func TestMedicationLogsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.CreateMedicationLog(ctx, types.NewMedicationLog{MedicationID: 10, UserID: 1, Taken: true})
	require.NoError(t, err)
	second, err := s.CreateMedicationLog(ctx, types.NewMedicationLog{MedicationID: 10, UserID: 1, Taken: false})
	require.NoError(t, err)
	_, err = s.CreateMedicationLog(ctx, types.NewMedicationLog{MedicationID: 11, UserID: 2, Taken: true})
	require.NoError(t, err)

	logs, err := s.GetMedicationLogsByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, second.ID, logs[0].ID)
	assert.Equal(t, first.ID, logs[1].ID)
}

func TestResourcesFilterActiveAndCategory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateResource(ctx, types.NewResource{Title: "Urge Surfing", Type: types.ResourceAudio, Content: "...", Category: "triggers"})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	triggers, err := s.GetResourcesByCategory(ctx, "triggers")
	require.NoError(t, err)
	assert.Len(t, triggers, 2)

	_, err = s.SetResourceActive(ctx, created.ID, false)
	require.NoError(t, err)

	triggers, err = s.GetResourcesByCategory(ctx, "triggers")
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, "Understanding Triggers", triggers[0].Title)

	none, err := s.GetResourcesByCategory(ctx, "Triggers")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.CreateResource(ctx, types.NewResource{Title: "Untagged", Type: types.ResourceArticle, Content: "..."})
	require.NoError(t, err)
	uncategorised, err := s.GetResourcesByCategory(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, uncategorised)

	all, err := s.GetAllResources(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = s.SetResourceActive(ctx, 999, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfessionalsFilterActive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SetProfessionalActive(ctx, 4, false)
	require.NoError(t, err)

	professionals, err := s.GetAllProfessionals(ctx)
	require.NoError(t, err)
	require.Len(t, professionals, 2)
	assert.Equal(t, "Weekly Group Meeting", professionals[0].Name)

	restored, err := s.SetProfessionalActive(ctx, 4, true)
	require.NoError(t, err)
	assert.True(t, restored.IsActive)

	_, err = s.SetProfessionalActive(ctx, 2, false)
	assert.ErrorIs(t, err, ErrNotFound, "id 2 is a resource, not a professional")
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	before := s.count()

	require.NoError(t, Seed(ctx, s, time.Now()))
	assert.Equal(t, before, s.count())
}
