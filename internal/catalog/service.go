package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hospitalops/ward-api/internal/model"
	apperrors "github.com/hospitalops/ward-api/pkg/errors"
)

type roomType struct {
	config model.RoomTypeConfig
	rooms  []*model.Room
}

// Service owns the static room-type configuration and the occupancy state
// of every generated room. Queries return copies; occupancy changes go
// through SetOccupied and SetFree only.
type Service struct {
	mu    sync.RWMutex
	types map[string]*roomType
	order []string
}

// NewService validates the configuration table and generates the room
// records for each type: numbers 1..capacity, zero-padded to three digits,
// prefixed with the type's code. Generation is deterministic, so rebuilding
// from the same table yields the same catalog.
func NewService(config map[string]model.RoomTypeConfig) (*Service, error) {
	if len(config) == 0 {
		return nil, fmt.Errorf("room type configuration is empty")
	}

	keys := make([]string, 0, len(config))
	for key := range config {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	seenPrefixes := make(map[string]string, len(config))
	types := make(map[string]*roomType, len(config))

	for _, key := range keys {
		cfg := config[key]
		if cfg.DisplayName == "" {
			return nil, fmt.Errorf("room type %q: display name is required", key)
		}
		if cfg.Capacity <= 0 {
			return nil, fmt.Errorf("room type %q: capacity must be positive, got %d", key, cfg.Capacity)
		}
		prefix := strings.ToUpper(cfg.NumberPrefix)
		if prefix == "" {
			return nil, fmt.Errorf("room type %q: number prefix is required", key)
		}
		if other, ok := seenPrefixes[prefix]; ok {
			return nil, fmt.Errorf("room types %q and %q share number prefix %q", other, key, prefix)
		}
		seenPrefixes[prefix] = key

		rooms := make([]*model.Room, 0, cfg.Capacity)
		for i := 1; i <= cfg.Capacity; i++ {
			rooms = append(rooms, &model.Room{
				Number: fmt.Sprintf("%s%03d", prefix, i),
			})
		}
		types[key] = &roomType{config: cfg, rooms: rooms}
	}

	return &Service{types: types, order: keys}, nil
}

// Types returns the configured room-type keys in stable order.
func (s *Service) Types() []string {
	return append([]string(nil), s.order...)
}

// Config returns the configuration entry for a room type.
func (s *Service) Config(typeKey string) (model.RoomTypeConfig, error) {
	rt, ok := s.types[typeKey]
	if !ok {
		return model.RoomTypeConfig{}, apperrors.UnknownRoomType(typeKey)
	}
	return rt.config, nil
}

// AvailableRooms returns the unoccupied rooms of a type in room-number order.
func (s *Service) AvailableRooms(typeKey string) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rt, ok := s.types[typeKey]
	if !ok {
		return nil, apperrors.UnknownRoomType(typeKey)
	}

	available := make([]model.Room, 0, len(rt.rooms))
	for _, room := range rt.rooms {
		if !room.Occupied {
			available = append(available, *room)
		}
	}
	return available, nil
}

// Stats returns derived occupancy counts for one room type.
func (s *Service) Stats(typeKey string) (model.RoomStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rt, ok := s.types[typeKey]
	if !ok {
		return model.RoomStats{}, apperrors.UnknownRoomType(typeKey)
	}
	return statsOf(rt), nil
}

// AllStats returns occupancy counts for every configured room type.
func (s *Service) AllStats() map[string]model.RoomStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]model.RoomStats, len(s.types))
	for key, rt := range s.types {
		stats[key] = statsOf(rt)
	}
	return stats
}

// SetOccupied marks a room occupied by the given patient. Occupying a room
// that is already taken, or one that does not exist, is rejected so that a
// stale caller can never double-book.
func (s *Service) SetOccupied(typeKey, roomNumber, patientID string) error {
	if patientID == "" {
		return fmt.Errorf("patient ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.types[typeKey]
	if !ok {
		return apperrors.UnknownRoomType(typeKey)
	}

	room := findRoom(rt, roomNumber)
	if room == nil || room.Occupied {
		return apperrors.RoomUnavailable(roomNumber)
	}

	room.Occupied = true
	room.PatientID = patientID
	return nil
}

// SetFree clears a room's occupancy. Freeing a room that is already free,
// or one that no longer exists in the catalog, is a no-op so that an
// out-of-sync caller cannot corrupt state.
func (s *Service) SetFree(typeKey, roomNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.types[typeKey]
	if !ok {
		return
	}

	if room := findRoom(rt, roomNumber); room != nil {
		room.Occupied = false
		room.PatientID = ""
	}
}

func findRoom(rt *roomType, roomNumber string) *model.Room {
	for _, room := range rt.rooms {
		if room.Number == roomNumber {
			return room
		}
	}
	return nil
}

func statsOf(rt *roomType) model.RoomStats {
	occupied := 0
	for _, room := range rt.rooms {
		if room.Occupied {
			occupied++
		}
	}
	return model.RoomStats{
		Total:     len(rt.rooms),
		Occupied:  occupied,
		Available: len(rt.rooms) - occupied,
	}
}
