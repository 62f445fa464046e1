package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/recoverytrack/apiserver/types"
)

const (
	DemoUsername = "demo_user"
	DemoPassword = "password123"
	DemoEmail    = "demo@example.com"

	demoRecoveryDays = 127
)

// Seed inserts the demo user, the starter resource catalog, and the
// professional directory through s. It is a no-op when the demo user exists.
func Seed(ctx context.Context, s Storage, now time.Time) error {
	if _, err := s.GetUserByUsername(ctx, DemoUsername); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("check demo user: %w", err)
	}

	user, err := s.Register(ctx, types.RegisterUser{
		Username:          DemoUsername,
		Password:          DemoPassword,
		Email:             DemoEmail,
		AddictionTypes:    []string{"alcohol", "opioids"},
		RecoveryStartDate: now.Add(-demoRecoveryDays * 24 * time.Hour),
	})
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	contacts := []string{"emergency-services", "support-buddy"}
	if _, err := s.UpdateUser(ctx, user.ID, types.UserPatch{EmergencyContacts: &contacts}); err != nil {
		return fmt.Errorf("seed demo contacts: %w", err)
	}

	for _, resource := range defaultResources() {
		if _, err := s.CreateResource(ctx, resource); err != nil {
			return fmt.Errorf("seed resource %q: %w", resource.Title, err)
		}
	}
	for _, professional := range defaultProfessionals() {
		if _, err := s.CreateProfessional(ctx, professional); err != nil {
			return fmt.Errorf("seed professional %q: %w", professional.Name, err)
		}
	}
	return nil
}

func defaultResources() []types.NewResource {
	return []types.NewResource{
		{
			Title:       "Understanding Triggers",
			Type:        types.ResourceArticle,
			Content:     "Learn to identify and manage your personal triggers for lasting recovery.",
			Description: strPtr("A comprehensive guide to identifying and managing triggers in addiction recovery."),
			Duration:    strPtr("5 min read"),
			Category:    "triggers",
		},
		{
			Title:       "Mindfulness for Recovery",
			Type:        types.ResourceVideo,
			Content:     "Guided meditation techniques specifically designed for addiction recovery.",
			Description: strPtr("Meditation and mindfulness practices for addiction recovery."),
			Duration:    strPtr("12 min"),
			Category:    "mindfulness",
		},
	}
}

func defaultProfessionals() []types.NewProfessional {
	return []types.NewProfessional{
		{
			Name:           "Dr. Emily Chen",
			Type:           "counselor",
			Contact:        "phone:555-0123",
			Availability:   strPtr("Available Today"),
			Specialization: strPtr("Addiction Counselor"),
		},
		{
			Name:           "Weekly Group Meeting",
			Type:           "support_group",
			Contact:        "location:Community Center",
			Availability:   strPtr("Thursdays 7 PM"),
			Specialization: strPtr("Group Support"),
		},
		{
			Name:           "Crisis Hotline",
			Type:           "hotline",
			Contact:        "phone:988",
			Availability:   strPtr("24/7 Support"),
			Specialization: strPtr("Crisis Intervention"),
		},
	}
}

func strPtr(s string) *string {
	return &s
}
