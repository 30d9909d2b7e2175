package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospitalops/ward-api/internal/catalog"
	"github.com/hospitalops/ward-api/internal/model"
	"github.com/hospitalops/ward-api/internal/store"
	apperrors "github.com/hospitalops/ward-api/pkg/errors"
	"github.com/hospitalops/ward-api/pkg/metrics"
)

type PatientRegistry interface {
	Admit(ctx context.Context, draft *model.AdmissionDraft, roomType, roomNumber string) (*model.Patient, error)
	Discharge(ctx context.Context, patientID string) (*model.Patient, error)
	List() []*model.Patient
	Search(query string) []*model.Patient
	Load(ctx context.Context) error
	Persist(ctx context.Context) error
	Export() *model.Snapshot
}

// Service owns the ordered list of admitted patients and drives catalog
// occupancy in step with it. One mutex covers the whole of every
// admit/discharge/persist sequence so the pair can never be observed
// half-updated, even with the autosave ticker running.
type Service struct {
	mu       sync.Mutex
	catalog  *catalog.Service
	store    store.Store
	validate *validator.Validate
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	patients []*model.Patient
}

func NewService(cat *catalog.Service, st store.Store, logger zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		catalog:  cat,
		store:    st,
		validate: validator.New(),
		logger:   logger,
		metrics:  m,
	}
}

// Admit validates the draft, re-checks that the chosen room is still free,
// and then occupies the room, appends the patient and persists as one
// indivisible sequence. On any failure nothing is left mutated.
func (s *Service) Admit(ctx context.Context, draft *model.AdmissionDraft, roomType, roomNumber string) (*model.Patient, error) {
	if err := s.validate.Struct(draft); err != nil {
		s.countAdmissionFailure("invalid_draft")
		return nil, apperrors.Invalid("invalid admission data", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	patient := &model.Patient{
		ID:            uuid.New().String(),
		Name:          draft.Name,
		Age:           draft.Age,
		Gender:        draft.Gender,
		Phone:         draft.Phone,
		Address:       draft.Address,
		RoomType:      roomType,
		RoomNumber:    roomNumber,
		AdmissionDate: draft.AdmissionDate,
		DoctorName:    draft.DoctorName,
		Status:        model.PatientStatusAdmitted,
	}
	if patient.AdmissionDate.IsZero() {
		patient.AdmissionDate = time.Now()
	}

	// The availability shown to the caller may be stale; the catalog
	// rejects the occupation if the room was taken in the meantime.
	if err := s.catalog.SetOccupied(roomType, roomNumber, patient.ID); err != nil {
		s.countAdmissionFailure(failureReason(err))
		return nil, fmt.Errorf("failed to allocate room: %w", err)
	}

	s.patients = append(s.patients, patient)

	if err := s.persistLocked(ctx); err != nil {
		s.catalog.SetFree(roomType, roomNumber)
		s.patients = s.patients[:len(s.patients)-1]
		s.countAdmissionFailure("persist")
		return nil, fmt.Errorf("failed to persist admission: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AdmissionsTotal.Inc()
	}
	s.updateOccupancyGauges()
	s.logger.Info().
		Str("patient_id", patient.ID).
		Str("room_type", roomType).
		Str("room_number", roomNumber).
		Msg("patient admitted")

	return clone(patient), nil
}

// Discharge frees the patient's room, removes the record and persists.
// The removed record is returned.
func (s *Service) Discharge(ctx context.Context, patientID string) (*model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.patients {
		if p.ID == patientID {
			idx = i
			break
		}
	}
	if idx == -1 {
		if s.metrics != nil {
			s.metrics.DischargeFailures.Inc()
		}
		return nil, apperrors.PatientNotFound(patientID)
	}

	patient := s.patients[idx]
	s.catalog.SetFree(patient.RoomType, patient.RoomNumber)
	s.patients = append(s.patients[:idx], s.patients[idx+1:]...)

	if err := s.persistLocked(ctx); err != nil {
		// Re-occupation can only fail if the room vanished from the
		// configured catalog, in which case there is nothing to restore.
		s.patients = append(s.patients[:idx], append([]*model.Patient{patient}, s.patients[idx:]...)...)
		if occErr := s.catalog.SetOccupied(patient.RoomType, patient.RoomNumber, patient.ID); occErr != nil {
			s.logger.Warn().Err(occErr).
				Str("patient_id", patient.ID).
				Str("room_number", patient.RoomNumber).
				Msg("could not restore room occupancy after failed persist")
		}
		if s.metrics != nil {
			s.metrics.DischargeFailures.Inc()
		}
		return nil, fmt.Errorf("failed to persist discharge: %w", err)
	}

	if s.metrics != nil {
		s.metrics.DischargesTotal.Inc()
	}
	s.updateOccupancyGauges()
	s.logger.Info().
		Str("patient_id", patient.ID).
		Str("room_number", patient.RoomNumber).
		Msg("patient discharged")

	return patient, nil
}

// List returns the admitted patients in admission order.
func (s *Service) List() []*model.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, clone(p))
	}
	return out
}

// Search matches the query case-insensitively against patient name, room
// number and doctor name. A leading "dr." or "dr " honorific in the query
// is ignored when matching doctor names; patients without a doctor never
// match on doctor.
func (s *Service) Search(query string) []*model.Patient {
	q := strings.ToLower(strings.TrimSpace(query))

	doctorQuery := q
	for _, honorific := range []string{"dr.", "dr "} {
		if strings.HasPrefix(doctorQuery, honorific) {
			doctorQuery = strings.TrimSpace(strings.TrimPrefix(doctorQuery, honorific))
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Patient
	for _, p := range s.patients {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.RoomNumber), q) ||
			(p.DoctorName != "" && strings.Contains(strings.ToLower(p.DoctorName), doctorQuery)) {
			out = append(out, clone(p))
		}
	}
	return out
}

// Count returns the number of admitted patients.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patients)
}

// Load reads the persisted patient list and replays every room assignment
// into the catalog. Individual malformed records are skipped, as are
// assignments that no longer resolve to a configured room, so one bad
// entry never discards the rest of the state.
func (s *Service) Load(ctx context.Context) error {
	data, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load persisted state: %w", err)
	}

	patients, err := s.deserialize(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range patients {
		if err := s.catalog.SetOccupied(p.RoomType, p.RoomNumber, p.ID); err != nil {
			s.logger.Warn().Err(err).
				Str("patient_id", p.ID).
				Str("room_type", p.RoomType).
				Str("room_number", p.RoomNumber).
				Msg("skipping room reconciliation for persisted patient")
		}
	}
	s.patients = patients
	s.updateOccupancyGauges()

	return nil
}

// Persist writes the full patient list to the store, overwriting the slot.
// Called on every mutation and by the autosave ticker.
func (s *Service) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

// Export returns a point-in-time snapshot of patients and occupancy stats
// for download or external consumption. It never mutates state.
func (s *Service) Export() *model.Snapshot {
	s.mu.Lock()
	patients := make([]*model.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		patients = append(patients, clone(p))
	}
	s.mu.Unlock()

	return &model.Snapshot{
		Patients:   patients,
		RoomStats:  s.catalog.AllStats(),
		ExportedAt: time.Now(),
	}
}

func (s *Service) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.patients)
	if err != nil {
		return fmt.Errorf("failed to encode patients: %w", err)
	}

	start := time.Now()
	if err := s.store.Save(ctx, data); err != nil {
		if s.metrics != nil {
			s.metrics.PersistFailures.Inc()
		}
		return fmt.Errorf("failed to save state: %w", err)
	}
	if s.metrics != nil {
		s.metrics.PersistsTotal.Inc()
		s.metrics.PersistLatency.Observe(time.Since(start).Seconds())
	}
	return nil
}

// deserialize decodes the patient list record by record so one malformed
// entry is dropped without aborting the whole load.
func (s *Service) deserialize(data []byte) ([]*model.Patient, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.MalformedRecord(err)
	}

	patients := make([]*model.Patient, 0, len(raw))
	for i, entry := range raw {
		var p model.Patient
		if err := json.Unmarshal(entry, &p); err != nil {
			s.logger.Warn().Err(err).Int("index", i).Msg("skipping malformed persisted record")
			continue
		}
		if p.ID == "" || p.RoomType == "" || p.RoomNumber == "" {
			s.logger.Warn().Int("index", i).Msg("skipping persisted record with missing identity fields")
			continue
		}
		patients = append(patients, &p)
	}
	return patients, nil
}

func (s *Service) updateOccupancyGauges() {
	if s.metrics == nil {
		return
	}
	for typeKey, stats := range s.catalog.AllStats() {
		s.metrics.OccupiedRooms.WithLabelValues(typeKey).Set(float64(stats.Occupied))
		s.metrics.AvailableRooms.WithLabelValues(typeKey).Set(float64(stats.Available))
	}
}

func (s *Service) countAdmissionFailure(reason string) {
	if s.metrics != nil {
		s.metrics.AdmissionFailures.WithLabelValues(reason).Inc()
	}
}

func failureReason(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrUnknownRoomType:
		return "unknown_room_type"
	case apperrors.ErrRoomUnavailable:
		return "room_unavailable"
	default:
		return "other"
	}
}

func clone(p *model.Patient) *model.Patient {
	c := *p
	return &c
}
