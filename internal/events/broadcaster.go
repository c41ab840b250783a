package events

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Event types published per avatar
const (
	TypeMessage       = "message"
	TypeFilesAttached = "files_attached"
	TypeAvatarDeleted = "avatar_deleted"
)

// subscriberBuffer is the channel capacity given to every subscriber
const subscriberBuffer = 16

// Event is a change to one avatar's state
type Event struct {
	Type     string `json:"type"`
	AvatarID string `json:"avatar_id"`
	Data     any    `json:"data"`
}

// Broadcaster fans events out to the subscribers of each avatar topic
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]map[chan Event]struct{} // avatarID -> subscribers
	log     zerolog.Logger
}

// NewBroadcaster creates a new broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]map[chan Event]struct{}),
		log:     log.Logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe adds a subscriber to the avatar's topic
func (b *Broadcaster) Subscribe(avatarID string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)

	if b.clients[avatarID] == nil {
		b.clients[avatarID] = make(map[chan Event]struct{})
	}
	b.clients[avatarID][ch] = struct{}{}

	b.log.Debug().Str("avatar_id", avatarID).Int("subscribers", len(b.clients[avatarID])).Msg("subscribed")
	return ch
}

// Unsubscribe removes ch from the topic and closes it. Channels already
// closed by CloseTopic are left alone.
func (b *Broadcaster) Unsubscribe(avatarID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, ok := b.clients[avatarID]
	if !ok {
		return
	}
	if _, ok := clients[ch]; !ok {
		return
	}

	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(b.clients, avatarID)
	}

	b.log.Debug().Str("avatar_id", avatarID).Msg("unsubscribed")
}

// Broadcast sends event to every subscriber of the topic. Full subscribers
// miss the event rather than block the publisher.
func (b *Broadcaster) Broadcast(avatarID string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	clients := b.clients[avatarID]
	if len(clients) == 0 {
		return
	}

	event.AvatarID = avatarID
	for ch := range clients {
		select {
		case ch <- event:
		default:
			b.log.Warn().Str("avatar_id", avatarID).Str("type", event.Type).Msg("subscriber channel full, skipping event")
		}
	}
}

// BroadcastMessage publishes a newly appended thread message
func (b *Broadcaster) BroadcastMessage(avatarID string, message any) {
	b.Broadcast(avatarID, Event{Type: TypeMessage, Data: message})
}

// BroadcastFilesAttached publishes an upload batch
func (b *Broadcaster) BroadcastFilesAttached(avatarID string, files any) {
	b.Broadcast(avatarID, Event{Type: TypeFilesAttached, Data: files})
}

// CloseTopic publishes the deletion and closes every subscriber of the avatar
func (b *Broadcaster) CloseTopic(avatarID string) {
	b.Broadcast(avatarID, Event{Type: TypeAvatarDeleted})

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.clients[avatarID] {
		close(ch)
	}
	delete(b.clients, avatarID)
}

// ClientCount returns the number of subscribers of the topic
func (b *Broadcaster) ClientCount(avatarID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[avatarID])
}

// TotalClientCount returns the number of subscribers across all topics
func (b *Broadcaster) TotalClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}
