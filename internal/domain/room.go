package domain

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrStoreFull         = errors.New("room store is full")
)

// RoomStore owns the collection of live rooms. Insertion and reaping
// are synchronized against concurrent lookups by the implementation.
type RoomStore interface {
	Create(ctx context.Context) (*Room, error)
	GetByID(ctx context.Context, id string) (*Room, error)
	Delete(ctx context.Context, id string) error
	Len() int
}

// Room is the authoritative state of one estimation session. All
// mutation goes through its methods under a single mutex, so commands
// for the same room never interleave. Every mutation bumps seq and
// returns a Snapshot carrying it; the connection layer uses seq to
// keep broadcasts in command order.
type Room struct {
	mu        sync.RWMutex
	id        string
	users     map[string]*User
	order     []string // user ids in join order, for stable listing
	revealed  bool
	seq       uint64
	createdAt time.Time
}

func NewRoom(id string) *Room {
	return &Room{
		id:        id,
		users:     make(map[string]*User),
		createdAt: time.Now(),
	}
}

func (r *Room) ID() string { return r.id }

func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Join allocates a fresh user identity and returns it with the
// post-join snapshot.
func (r *Room) Join(name string) (string, Snapshot, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return "", Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	userID := uuid.NewString()
	r.users[userID] = &User{ID: userID, Name: name}
	r.order = append(r.order, userID)

	return userID, r.snapshotLocked(), nil
}

// Rejoin reattaches a previously issued user id. The estimate and the
// room's revealed flag are left untouched; the display name is
// overwritten with whatever the client sent. Unknown ids are rejected
// rather than silently recreated, so a stale client token never forks
// a second identity.
func (r *Room) Rejoin(userID, name string) (Snapshot, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return Snapshot{}, ErrUserNotFound
	}
	user.Name = name

	return r.snapshotLocked(), nil
}

// Vote records an estimate for a known user. Last write wins; votes
// cast while revealed are stored and immediately visible.
func (r *Room) Vote(userID, estimate string) (Snapshot, error) {
	estimate, err := NormalizeEstimate(estimate)
	if err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return Snapshot{}, ErrUserNotFound
	}
	user.Estimate = &estimate

	return r.snapshotLocked(), nil
}

// Show reveals all estimates. Idempotent.
func (r *Room) Show() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.revealed = true
	return r.snapshotLocked()
}

// Clear hides estimates again and wipes every vote. Idempotent.
func (r *Room) Clear() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.revealed = false
	for _, user := range r.users {
		user.Estimate = nil
	}
	return r.snapshotLocked()
}

// Snapshot returns the current state without mutating it.
func (r *Room) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewLocked(r.seq)
}

// HasUser reports whether the given user id was issued by this room.
func (r *Room) HasUser(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok
}

// snapshotLocked bumps the sequence number and builds the outbound
// view. Callers must hold r.mu for writing.
func (r *Room) snapshotLocked() Snapshot {
	r.seq++
	return r.viewLocked(r.seq)
}

// viewLocked builds the serializable view of the room. While the room
// is not revealed, estimate literals are withheld and only the voted
// marker is exposed, so hidden votes never leave the process.
func (r *Room) viewLocked(seq uint64) Snapshot {
	users := make(UserList, 0, len(r.order))
	for _, id := range r.order {
		user := r.users[id]
		view := UserView{
			ID:    user.ID,
			Name:  user.Name,
			Voted: user.Estimate != nil,
		}
		if r.revealed && user.Estimate != nil {
			estimate := *user.Estimate
			view.Estimate = &estimate
		}
		users = append(users, view)
	}

	return Snapshot{
		Seq:      seq,
		ID:       r.id,
		Users:    users,
		Revealed: r.revealed,
	}
}
