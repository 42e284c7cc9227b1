package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"roomsync/domain"
	errs "roomsync/errors"
	"roomsync/identity"
	"roomsync/mocks"
	"roomsync/projection"
	"roomsync/runtime"
)

func newService(t *testing.T) (*RoomService, *mocks.MockFeed) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockFeed := mocks.NewMockFeed(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	session := runtime.NewSession(log, mockFeed, domain.Identity{ID: "id-alice"}, "Alice", projection.DefaultRetention)
	profiles := identity.NewStore(nil, log)
	return NewRoomService(log, session, profiles), mockFeed
}

func TestRoomService_JoinRoom_RejectsEmptyRoomID(t *testing.T) {
	req := require.New(t)
	// The feed carries no expectations: validation failures never reach it
	svc, _ := newService(t)

	req.ErrorIs(svc.JoinRoom(context.Background(), ""), errs.ErrEmptyRoomID)
	req.ErrorIs(svc.JoinRoom(context.Background(), "  \t "), errs.ErrEmptyRoomID)
}

func TestRoomService_SendMessage_RejectsEmptyText(t *testing.T) {
	req := require.New(t)
	svc, _ := newService(t)

	req.ErrorIs(svc.SendMessage(context.Background(), ""), errs.ErrEmptyMessage)
	req.ErrorIs(svc.SendMessage(context.Background(), "   \n"), errs.ErrEmptyMessage)
}

func TestRoomService_SendMessage_RequiresJoinedRoom(t *testing.T) {
	req := require.New(t)
	svc, _ := newService(t)

	req.ErrorIs(svc.SendMessage(context.Background(), "hello"), errs.ErrNotJoined)
}

func TestRoomService_SetDisplayName_RejectsEmptyName(t *testing.T) {
	req := require.New(t)
	svc, _ := newService(t)

	req.ErrorIs(svc.SetDisplayName(context.Background(), "  "), errs.ErrEmptyName)
}

func TestRoomService_SetDisplayName_TrimsAndAccepts(t *testing.T) {
	req := require.New(t)
	svc, _ := newService(t)

	// Idle session: no participant rewrite, no feed call
	req.NoError(svc.SetDisplayName(context.Background(), "  Alice  "))
}

func TestRoomService_State_ReflectsIdleSession(t *testing.T) {
	req := require.New(t)
	svc, _ := newService(t)

	state := svc.State()

	req.False(state.Joined)
	req.Equal(domain.StatusIdle, state.Status)
	req.Empty(state.RoomID)
	req.Equal("id-alice", state.Identity.ID)
	req.Empty(state.Participants)
	req.Empty(state.Messages)
}
