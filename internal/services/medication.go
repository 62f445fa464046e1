package services

import (
	"context"

	"github.com/recoverytrack/apiserver/internal/mq"
	"github.com/recoverytrack/apiserver/internal/store"
	"github.com/recoverytrack/apiserver/types"
)

// MedicationService manages medication schedules and dose logging.
type MedicationService struct {
	store  store.Storage
	events *Events
}

func NewMedicationService(s store.Storage, events *Events) *MedicationService {
	return &MedicationService{store: s, events: events}
}

func (s *MedicationService) Create(ctx context.Context, input types.NewMedication) (types.Medication, error) {
	return s.store.CreateMedication(ctx, input)
}

// Get returns the medication when ownerID owns it, ErrForbidden otherwise.
func (s *MedicationService) Get(ctx context.Context, ownerID, id int64) (types.Medication, error) {
	med, err := s.store.GetMedication(ctx, id)
	if err != nil {
		return types.Medication{}, err
	}
	if med.UserID != ownerID {
		return types.Medication{}, ErrForbidden
	}
	return med, nil
}

// ListByUser returns the user's active medications.
func (s *MedicationService) ListByUser(ctx context.Context, userID int64) ([]types.Medication, error) {
	return s.store.GetMedicationsByUser(ctx, userID)
}

func (s *MedicationService) Update(ctx context.Context, ownerID, id int64, patch types.MedicationPatch) (types.Medication, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return types.Medication{}, err
	}
	return s.store.UpdateMedication(ctx, id, patch)
}

// LogDose records a taken or missed dose for a medication the user owns.
func (s *MedicationService) LogDose(ctx context.Context, input types.NewMedicationLog) (types.MedicationLog, error) {
	if _, err := s.Get(ctx, input.UserID, input.MedicationID); err != nil {
		return types.MedicationLog{}, err
	}
	log, err := s.store.CreateMedicationLog(ctx, input)
	if err != nil {
		return types.MedicationLog{}, err
	}

	eventType := types.EventMedicationMissed
	if log.Taken {
		eventType = types.EventMedicationTaken
	}
	s.events.publish(ctx, mq.ChannelMedicationLogs, eventType, log.UserID, log.ID, log.Timestamp, log)
	return log, nil
}

func (s *MedicationService) ListLogs(ctx context.Context, userID int64) ([]types.MedicationLog, error) {
	return s.store.GetMedicationLogsByUser(ctx, userID)
}
