package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"famnet-backend/internal/auth"
	"famnet-backend/internal/chat"
	"famnet-backend/internal/mocks"
	"famnet-backend/internal/models"
)

// A pull_rooms request sent after the handshake must still reach the store.
func TestPresenceSocketHandlesActionsAfterHandshake(t *testing.T) {
	gin.SetMode(gin.TestMode)

	roomRepo := new(mocks.RoomRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)

	ctxErrs := make(chan error, 4)
	roomRepo.On("ListRoomsForUser", mock.Anything, 1).
		Run(func(args mock.Arguments) {
			ctxErrs <- args.Get(0).(context.Context).Err()
		}).
		Return([]models.Room{}, nil)
	userRepo.On("SetOnline", mock.Anything, 1, true).Return(nil)
	userRepo.On("SetOnline", mock.Anything, 1, false).Return(nil)
	userRepo.On("SetLastIP", mock.Anything, 1, mock.Anything).Return(nil)

	hub := NewHub()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	service := chat.NewRoomService(roomRepo, new(mocks.FriendshipRepositoryMock), new(mocks.FamilyRepositoryMock), hub)
	handler := NewPresenceSocketHandler(hub, service, userRepo, tokens)

	router := gin.New()
	router.GET("/ws/presence", handler.Handle)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	token, err := tokens.IssueAccess(1)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/presence?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	require.Equal(t, models.ActionPullRooms, readEnvelope(t, conn).Action)

	time.Sleep(150 * time.Millisecond)
	require.NoError(t, conn.WriteJSON(models.OutEnvelope{Action: models.ActionPullRooms}))
	require.Equal(t, models.ActionPullRooms, readEnvelope(t, conn).Action)

	close(ctxErrs)
	for err := range ctxErrs {
		require.NoError(t, err, "store call ran on a dead context")
	}
}
