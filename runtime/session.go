package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"roomsync/contract"
	"roomsync/domain"
	"roomsync/domain/event"
	errs "roomsync/errors"
	"roomsync/projection"
)

// Session is the state machine orchestrating room membership. It owns the
// create, join, leave, and rejoin transitions, wires the presence and
// message projections to a specific room, and exposes the intents the UI
// collaborator may invoke. Exactly one room is active at a time: joining a
// second room fully leaves the first before proceeding.
//
// Feed notifications arrive on their own goroutines, so all session state
// is serialized behind one mutex. Each leave bumps an epoch counter which
// in-flight joins check between steps: a join whose epoch has moved on
// aborts its remaining steps and closes whatever it partially opened.
type Session struct {
	log      *slog.Logger
	feed     contract.Feed
	identity domain.Identity

	registry  *Registry
	presence  *projection.PresenceTracker
	stream    *projection.MessageStream
	retention int

	mu          sync.Mutex
	status      domain.Status
	room        *domain.Room
	displayName string
	epoch       uint64
	sinks       []contract.EventSink
}

func NewSession(log *slog.Logger, feed contract.Feed, identity domain.Identity, displayName string, retention int) *Session {
	if retention <= 0 {
		retention = projection.DefaultRetention
	}
	return &Session{
		log:         log,
		feed:        feed,
		identity:    identity,
		registry:    NewRegistry(log),
		presence:    projection.NewPresenceTracker(),
		stream:      projection.NewMessageStream(retention),
		retention:   retention,
		displayName: displayName,
	}
}

// AddSink registers a consumer for the events the session emits once
// remote changes have been applied to the local view.
func (s *Session) AddSink(sinks ...contract.EventSink) {
	s.mu.Lock()
	s.sinks = append(s.sinks, sinks...)
	s.mu.Unlock()
}

// Create generates a new room code, writes the initial room record, and
// joins it. On a failed initial write the generated code is still returned
// so the caller may retry it, but the session stays Idle.
func (s *Session) Create(ctx context.Context) (string, error) {
	roomID := domain.NewRoomCode()
	if err := s.feed.Write(ctx, contract.RoomPath(roomID), domain.NewRoom(roomID)); err != nil {
		return roomID, fmt.Errorf("%w: creating room %s: %v", errs.ErrFeedUnavailable, roomID, err)
	}
	return roomID, s.Join(ctx, roomID)
}

// Join establishes membership in roomID. Steps, in order: write the local
// participant record, arm the disconnect cleanup hook, open the presence
// snapshot subscription, open the bounded message subscription, then check
// that the room record still exists and recreate it if it was externally
// deleted. Only the initial presence write is fatal; the hook and the
// self-heal are best effort. A leave arriving mid-join cancels the
// remaining steps.
func (s *Session) Join(ctx context.Context, roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return errs.ErrEmptyRoomID
	}

	// Leave old, then join new, strictly sequenced (one active room).
	s.Leave(ctx)

	s.mu.Lock()
	if s.status != domain.StatusIdle {
		s.mu.Unlock()
		return errs.ErrJoinAborted
	}
	s.status = domain.StatusJoining
	s.room = &domain.Room{ID: roomID}
	epoch := s.epoch
	name := s.displayName
	s.mu.Unlock()

	participantPath := contract.ParticipantPath(roomID, s.identity.ID)
	participant := domain.Participant{
		ID:       s.identity.ID,
		Name:     name,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.feed.Write(ctx, participantPath, participant); err != nil {
		s.failJoin(epoch)
		return fmt.Errorf("%w: writing presence for room %s: %v", errs.ErrFeedUnavailable, roomID, err)
	}

	// If the hook cannot be armed, a dropped connection leaves the record
	// behind until the next explicit leave or rejoin rewrites it.
	if err := s.feed.OnDisconnectRemove(participantPath); err != nil {
		s.log.Warn("Failed to arm disconnect cleanup", "room", roomID, "err", err)
	}

	presenceSub, err := s.feed.SubscribeSnapshot(contract.ParticipantsPath(roomID), s.onPresenceSnapshot(roomID))
	if err != nil {
		s.failJoin(epoch)
		s.compensatePresence(ctx, roomID)
		return fmt.Errorf("%w: subscribing to participants of room %s: %v", errs.ErrFeedUnavailable, roomID, err)
	}
	if !s.adopt(epoch, presenceSub) {
		s.compensatePresence(ctx, roomID)
		return errs.ErrJoinAborted
	}

	messageSub, err := s.feed.SubscribeAppended(contract.MessagesPath(roomID), s.retention, s.onMessageAppended(roomID))
	if err != nil {
		s.failJoin(epoch)
		s.compensatePresence(ctx, roomID)
		return fmt.Errorf("%w: subscribing to messages of room %s: %v", errs.ErrFeedUnavailable, roomID, err)
	}
	if !s.adopt(epoch, messageSub) {
		s.compensatePresence(ctx, roomID)
		return errs.ErrJoinAborted
	}

	// Self-heal: recreate the room record if it was externally deleted.
	if _, found, err := s.feed.ReadOnce(ctx, contract.RoomPath(roomID)); err != nil {
		s.log.Warn("Room existence check failed", "room", roomID, "err", err)
	} else if !found {
		if err := s.feed.Write(ctx, contract.RoomPath(roomID), domain.NewRoom(roomID)); err != nil {
			s.log.Warn("Failed to recreate room record", "room", roomID, "err", err)
		}
	}

	s.mu.Lock()
	if s.epoch != epoch || s.status != domain.StatusJoining {
		s.mu.Unlock()
		s.compensatePresence(ctx, roomID)
		return errs.ErrJoinAborted
	}
	s.status = domain.StatusJoined
	s.mu.Unlock()

	s.log.Info("Joined room", "room", roomID, "identity", s.identity.ID)
	return nil
}

// Leave tears the active room down. A no-op unless Joined or Joining. The
// presence removal is best effort (the disconnect hook cleans the record
// later if the write is lost), the subscription release and the local
// reset are unconditional, and the session always ends Idle.
func (s *Session) Leave(ctx context.Context) {
	s.mu.Lock()
	if s.status != domain.StatusJoined && s.status != domain.StatusJoining {
		s.mu.Unlock()
		return
	}
	roomID := s.room.ID
	s.status = domain.StatusLeaving
	s.epoch++ // cancels any join still in flight
	s.mu.Unlock()

	if err := s.feed.Remove(ctx, contract.ParticipantPath(roomID, s.identity.ID)); err != nil {
		s.log.Warn("Presence removal failed, room may self-clean on disconnect", "room", roomID, "err", err)
	}

	s.registry.ReleaseAll()
	s.presence.Reset()
	s.stream.Reset()

	s.mu.Lock()
	s.status = domain.StatusIdle
	s.room = nil
	s.mu.Unlock()

	s.log.Info("Left room", "room", roomID)
}

// Send appends a message to the active room. The message is not applied
// locally: the local view only ever reflects feed-confirmed state, so the
// message appears when the subscription echoes it back.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return errs.ErrEmptyMessage
	}

	s.mu.Lock()
	if s.status != domain.StatusJoined {
		s.mu.Unlock()
		return errs.ErrNotJoined
	}
	roomID := s.room.ID
	name := s.displayName
	s.mu.Unlock()

	msg := domain.Message{
		FromID:   s.identity.ID,
		FromName: name,
		Text:     text,
		At:       time.Now().UTC(),
	}
	if _, err := s.feed.Push(ctx, contract.MessagesPath(roomID), msg); err != nil {
		return fmt.Errorf("%w: sending message to room %s: %v", errs.ErrFeedUnavailable, roomID, err)
	}
	return nil
}

// SetDisplayName changes the name shown next to this identity. When a room
// is active the participant record is rewritten in place, last write wins.
// A failed rewrite is logged only: the name still propagates on the next
// join.
func (s *Session) SetDisplayName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.ErrEmptyName
	}

	s.mu.Lock()
	s.displayName = name
	joined := s.status == domain.StatusJoined
	var roomID string
	if joined {
		roomID = s.room.ID
	}
	s.mu.Unlock()

	if !joined {
		return nil
	}
	participant := domain.Participant{ID: s.identity.ID, Name: name, JoinedAt: time.Now().UTC()}
	if err := s.feed.Write(ctx, contract.ParticipantPath(roomID, s.identity.ID), participant); err != nil {
		s.log.Warn("Failed to rewrite participant record", "room", roomID, "err", err)
	}
	return nil
}

func (s *Session) Identity() domain.Identity {
	return s.identity
}

func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// View exposes the derived read-only state consumed by the UI collaborator.
func (s *Session) View() domain.SessionView {
	s.mu.Lock()
	var roomID string
	if s.room != nil {
		roomID = s.room.ID
	}
	status := s.status
	s.mu.Unlock()

	return domain.SessionView{
		RoomID:       roomID,
		Joined:       status == domain.StatusJoined,
		Status:       status,
		Identity:     s.identity,
		Participants: s.presence.Participants(),
		Messages:     s.stream.Messages(),
	}
}

// adopt hands a freshly opened subscription to the registry, unless the
// join that opened it was canceled meanwhile, in which case the handle is
// closed on the spot so it cannot outlive the abandoned join.
func (s *Session) adopt(epoch uint64, sub contract.Subscription) bool {
	s.mu.Lock()
	if s.epoch != epoch || s.status != domain.StatusJoining {
		s.mu.Unlock()
		if err := sub.Close(); err != nil {
			s.log.Warn("Failed to close orphaned subscription", "err", err)
		}
		return false
	}
	s.registry.Register(sub)
	s.mu.Unlock()
	return true
}

// compensatePresence removes the participant record written by a join
// attempt that later failed or was canceled. Without it a leave racing the
// join leaves a ghost participant behind: the leave's removal runs before
// the record exists, and the aborted join never cleans up its own write.
// Best effort, like the leave path. Skipped when a newer attempt owns the
// record for the same room.
func (s *Session) compensatePresence(ctx context.Context, roomID string) {
	s.mu.Lock()
	owned := s.room != nil && s.room.ID == roomID &&
		(s.status == domain.StatusJoining || s.status == domain.StatusJoined)
	s.mu.Unlock()
	if owned {
		return
	}

	if err := s.feed.Remove(ctx, contract.ParticipantPath(roomID, s.identity.ID)); err != nil {
		s.log.Warn("Failed to remove presence of aborted join", "room", roomID, "err", err)
	}
}

// failJoin unwinds a join that could not complete, releasing whatever it
// opened so the session never sticks in Joining with live handles.
func (s *Session) failJoin(epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch || s.status != domain.StatusJoining {
		s.mu.Unlock()
		return
	}
	s.status = domain.StatusIdle
	s.room = nil
	s.mu.Unlock()

	s.registry.ReleaseAll()
	s.presence.Reset()
	s.stream.Reset()
}

// active reports whether roomID is still the room this session is joining
// or joined to. Notifications for any other room are stale and absorbed.
func (s *Session) active(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil || s.room.ID != roomID {
		return false
	}
	return s.status == domain.StatusJoining || s.status == domain.StatusJoined
}

func (s *Session) onPresenceSnapshot(roomID string) contract.SnapshotFunc {
	return func(value any) {
		if !s.active(roomID) {
			s.log.Debug("Stale presence notification dropped", "room", roomID)
			return
		}
		s.presence.ApplySnapshot(value)
		s.emit(event.PresenceChanged{Room: roomID, Participants: s.presence.Participants()})
	}
}

func (s *Session) onMessageAppended(roomID string) contract.AppendedFunc {
	return func(id string, value any) {
		if !s.active(roomID) {
			s.log.Debug("Stale message notification dropped", "room", roomID, "id", id)
			return
		}
		msg, ok := value.(domain.Message)
		if !ok {
			s.log.Warn("Dropping malformed message notification", "id", id)
			return
		}
		msg.ID = id
		if !s.stream.Apply(msg) {
			// Replayed notification from a resubscription, absorbed.
			s.log.Debug("Duplicate message notification dropped", "id", id)
			return
		}
		s.emit(event.MessageReceived{Room: roomID, Message: msg})
	}
}

func (s *Session) emit(e event.Event) {
	s.mu.Lock()
	sinks := append([]contract.EventSink(nil), s.sinks...)
	s.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Consume(context.Background(), e); err != nil {
			s.log.Warn("Event sink failed", "room", e.RoomID(), "err", err)
		}
	}
}
