package repository

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/pointdeck/pointdeck/internal/domain"
	"go.uber.org/zap"
)

// Room ids are short, shareable 3-digit strings like the session URLs
// clients paste around.
var roomIDSpan = big.NewInt(900)

const createAttempts = 32

// Occupancy reports live connections per room. The connection layer
// implements it; the store consults it before reaping.
type Occupancy interface {
	RoomClientCount(roomID string) int
}

type RoomStore struct {
	rooms      map[string]*domain.Room
	lastActive map[string]time.Time // ID -> last lookup or creation
	capacity   uint
	idleGrace  time.Duration
	mu         sync.RWMutex
}

func NewRoomStore(capacity uint, idleGrace time.Duration) *RoomStore {
	if capacity == 0 {
		capacity = 500
	}
	if idleGrace == 0 {
		idleGrace = 10 * time.Minute
	}

	return &RoomStore{
		rooms:      make(map[string]*domain.Room),
		lastActive: make(map[string]time.Time),
		capacity:   capacity,
		idleGrace:  idleGrace,
	}
}

func (s *RoomStore) touch(roomID string) {
	s.lastActive[roomID] = time.Now()
}

// Create allocates a room under a fresh random id. Ids are drawn from
// a small space, so collisions are checked and retried.
func (s *RoomStore) Create(ctx context.Context) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enforceCapacity()

	for i := 0; i < createAttempts; i++ {
		id, err := generateRoomID()
		if err != nil {
			return nil, err
		}
		if _, exists := s.rooms[id]; exists {
			continue
		}

		room := domain.NewRoom(id)
		s.rooms[id] = room
		s.touch(id)
		return room, nil
	}

	return nil, domain.ErrStoreFull
}

// GetByID returns a room and updates its access time.
func (s *RoomStore) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[id]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}
	s.touch(id)

	return room, nil
}

// Delete removes a room. Idempotent.
func (s *RoomStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, id)
	delete(s.lastActive, id)
	return nil
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Reap deletes rooms that have held zero live connections past the
// idle grace period. Returns the ids removed.
func (s *RoomStore) Reap(occ Occupancy) []string {
	cutoff := time.Now().Add(-s.idleGrace)

	s.mu.Lock()
	defer s.mu.Unlock()

	var reaped []string
	for id, last := range s.lastActive {
		if last.After(cutoff) {
			continue
		}
		if occ != nil && occ.RoomClientCount(id) > 0 {
			// Connected but quiet; keep it alive
			s.touch(id)
			continue
		}
		delete(s.rooms, id)
		delete(s.lastActive, id)
		reaped = append(reaped, id)
	}
	return reaped
}

// StartReaper reaps on an interval until ctx is cancelled.
func (s *RoomStore) StartReaper(ctx context.Context, interval time.Duration, occ Occupancy, logger *zap.SugaredLogger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if reaped := s.Reap(occ); len(reaped) > 0 {
					logger.Infow("reaped idle rooms", "rooms", reaped)
				}
			}
		}
	}()
}

// enforceCapacity drops the oldest-idle rooms to make space for one
// more. Must be called while holding mu.
func (s *RoomStore) enforceCapacity() {
	for uint(len(s.rooms)) >= s.capacity {
		var oldestID string
		var oldest time.Time
		for id, t := range s.lastActive {
			if oldestID == "" || t.Before(oldest) {
				oldestID = id
				oldest = t
			}
		}
		if oldestID == "" {
			return
		}
		delete(s.rooms, oldestID)
		delete(s.lastActive, oldestID)
	}
}

func generateRoomID() (string, error) {
	n, err := rand.Int(rand.Reader, roomIDSpan)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100, 10), nil // 100..999
}
