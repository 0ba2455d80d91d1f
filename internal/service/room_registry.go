package service

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/campuslink/campuslink-api/internal/dto"
)

const realtimeSendBufferSize = 32

// Broadcaster delivers a frame to every connection in a tag's room.
type Broadcaster interface {
	Broadcast(tagName string, frame dto.ServerFrame)
}

// RoomRegistry owns the in-process room table: one room per tag name, each
// holding the member connections and the tag's typing-name list. Fan-out is
// local to this process only.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*room
	log   zerolog.Logger
}

type room struct {
	clients map[*realtimeClient]struct{}
	typing  []string
}

type realtimeClient struct {
	conn    *websocket.Conn
	send    chan interface{}
	joined  map[string]struct{}
	closed  chan struct{}
	once    sync.Once
	service *realtimeService
}

// NewRoomRegistry constructs the process-wide room registry.
func NewRoomRegistry(logger zerolog.Logger) *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*room),
		log:   logger.With().Str("component", "room_registry").Logger(),
	}
}

func (r *RoomRegistry) roomLocked(tagName string) *room {
	rm, ok := r.rooms[tagName]
	if !ok {
		rm = &room{clients: make(map[*realtimeClient]struct{})}
		r.rooms[tagName] = rm
	}
	return rm
}

// Join adds the connection to the tag's room. Joining an already-joined room
// is a no-op.
func (r *RoomRegistry) Join(client *realtimeClient, tagName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roomLocked(tagName).clients[client] = struct{}{}
	client.joined[tagName] = struct{}{}
	r.log.Debug().Str("tag", tagName).Msg("client joined room")
}

// Leave removes the connection from the tag's room. Leaving a non-joined room
// is a no-op.
func (r *RoomRegistry) Leave(client *realtimeClient, tagName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(client, tagName)
	r.log.Debug().Str("tag", tagName).Msg("client left room")
}

func (r *RoomRegistry) leaveLocked(client *realtimeClient, tagName string) {
	if rm, ok := r.rooms[tagName]; ok {
		delete(rm.clients, client)
		if len(rm.clients) == 0 && len(rm.typing) == 0 {
			delete(r.rooms, tagName)
		}
	}
	delete(client.joined, tagName)
}

// Drop releases every room membership held by the connection. Typing entries
// contributed by the disconnecting user stay in the room lists and no
// corrective broadcast is sent; other members see them until the next typing
// event refreshes the list.
func (r *RoomRegistry) Drop(client *realtimeClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for tagName := range client.joined {
		r.leaveLocked(client, tagName)
	}
}

// Broadcast sends the frame to every member of the tag's room, dropping it for
// clients whose send queue is full.
func (r *RoomRegistry) Broadcast(tagName string, frame dto.ServerFrame) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[tagName]
	if !ok {
		return
	}

	for client := range rm.clients {
		select {
		case client.send <- frame:
		default:
			r.log.Warn().Str("tag", tagName).Msg("dropping frame for slow realtime client")
		}
	}
}

// StartTyping appends the display name to the tag's typing list and returns a
// copy. Duplicate names are kept: a user who signals start twice appears twice.
func (r *RoomRegistry) StartTyping(tagName, displayName string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.roomLocked(tagName)
	rm.typing = append(rm.typing, displayName)
	return append([]string(nil), rm.typing...)
}

// StopTyping removes the first occurrence of the display name from the tag's
// typing list and returns a copy.
func (r *RoomRegistry) StopTyping(tagName, displayName string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.roomLocked(tagName)
	for i, name := range rm.typing {
		if name == displayName {
			rm.typing = append(rm.typing[:i], rm.typing[i+1:]...)
			break
		}
	}
	return append([]string(nil), rm.typing...)
}

// Typing returns a copy of the tag's current typing list.
func (r *RoomRegistry) Typing(tagName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rm, ok := r.rooms[tagName]; ok {
		return append([]string(nil), rm.typing...)
	}
	return nil
}

// MemberCount reports how many connections are in the tag's room.
func (r *RoomRegistry) MemberCount(tagName string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rm, ok := r.rooms[tagName]; ok {
		return len(rm.clients)
	}
	return 0
}
