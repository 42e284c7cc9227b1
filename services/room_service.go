package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"roomsync/contract"
	"roomsync/domain"
	errs "roomsync/errors"
	"roomsync/identity"
	"roomsync/runtime"
)

var validate = validator.New()

type joinRoomRequest struct {
	RoomID string `validate:"required"`
}

type sendMessageRequest struct {
	Text string `validate:"required"`
}

type setDisplayNameRequest struct {
	Name string `validate:"required,max=64"`
}

// IRoomService is the boundary the UI collaborator talks to. Intents come
// in, the derived read-only state goes out.
type IRoomService interface {
	CreateRoom(ctx context.Context) (string, error)
	JoinRoom(ctx context.Context, roomID string) error
	LeaveRoom(ctx context.Context)
	SendMessage(ctx context.Context, text string) error
	SetDisplayName(ctx context.Context, name string) error
	State() domain.SessionView
}

type RoomService struct {
	log      *slog.Logger
	session  *runtime.Session
	profiles *identity.Store
}

func NewRoomService(log *slog.Logger, session *runtime.Session, profiles *identity.Store) *RoomService {
	return &RoomService{log: log, session: session, profiles: profiles}
}

func (s *RoomService) CreateRoom(ctx context.Context) (string, error) {
	return s.session.Create(ctx)
}

func (s *RoomService) JoinRoom(ctx context.Context, roomID string) error {
	req := joinRoomRequest{RoomID: strings.TrimSpace(roomID)}
	if err := validate.Struct(req); err != nil {
		return errs.ErrEmptyRoomID
	}
	return s.session.Join(ctx, req.RoomID)
}

func (s *RoomService) LeaveRoom(ctx context.Context) {
	s.session.Leave(ctx)
}

func (s *RoomService) SendMessage(ctx context.Context, text string) error {
	req := sendMessageRequest{Text: strings.TrimSpace(text)}
	if err := validate.Struct(req); err != nil {
		return errs.ErrEmptyMessage
	}
	return s.session.Send(ctx, req.Text)
}

// SetDisplayName updates the name in the active session and persists it
// for future sessions. The persistence failure is logged only, the live
// rename already happened.
func (s *RoomService) SetDisplayName(ctx context.Context, name string) error {
	req := setDisplayNameRequest{Name: strings.TrimSpace(name)}
	if err := validate.Struct(req); err != nil {
		return errs.ErrEmptyName
	}
	if err := s.session.SetDisplayName(ctx, req.Name); err != nil {
		return err
	}
	if err := s.profiles.SetDisplayName(req.Name); err != nil {
		s.log.Warn("Failed to persist display name", "err", err)
	}
	return nil
}

func (s *RoomService) State() domain.SessionView {
	return s.session.View()
}

// AddSink forwards a sink registration to the session, letting the UI
// collaborator observe applied changes without polling State.
func (s *RoomService) AddSink(sinks ...contract.EventSink) {
	s.session.AddSink(sinks...)
}
