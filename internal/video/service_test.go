package video

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"famnet-backend/internal/chat"
	"famnet-backend/internal/config"
	"famnet-backend/internal/mocks"
	"famnet-backend/internal/models"
)

func testConfig() config.VideoConfig {
	return config.VideoConfig{
		APIKey:    "api-key",
		APISecret: "api-secret",
		ServerURL: "wss://sfu.example.com",
	}
}

func TestJoinCallIssuesRoomGrant(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	callRepo := new(mocks.VideoCallRepositoryMock)
	svc := NewService(testConfig(), roomRepo, callRepo)

	roomRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	callRepo.On("GetOrCreateCall", mock.Anything, 5, 1).Return(models.VideoCall{ID: 3, RoomID: 5, Status: models.CallOngoing}, nil).Once()
	callRepo.On("AddParticipant", mock.Anything, 3, 1).Return(nil).Once()
	callRepo.On("ListIceServers", mock.Anything).Return([]models.IceServer{{URLs: "stun:stun.example.com"}}, nil).Once()

	resp, err := svc.JoinCall(context.Background(), 5, 1, "Ann Bell")
	require.NoError(t, err)
	require.Equal(t, "room_5", resp.RoomName)
	require.Equal(t, "wss://sfu.example.com", resp.ServerURL)
	require.Len(t, resp.IceServers, 1)

	var claims accessClaims
	_, err = jwt.ParseWithClaims(resp.Token, &claims, func(tok *jwt.Token) (interface{}, error) {
		return []byte("api-secret"), nil
	})
	require.NoError(t, err)
	require.Equal(t, "room_5", claims.Video.Room)
	require.True(t, claims.Video.RoomJoin)
	require.Equal(t, "api-key", claims.Issuer)
	require.Equal(t, "user_1", claims.Subject)
}

func TestJoinCallRequiresMembership(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	callRepo := new(mocks.VideoCallRepositoryMock)
	svc := NewService(testConfig(), roomRepo, callRepo)

	roomRepo.On("IsParticipant", mock.Anything, 5, 9).Return(false, nil).Once()

	_, err := svc.JoinCall(context.Background(), 5, 9, "x")
	require.ErrorIs(t, err, chat.ErrNotParticipant)
	callRepo.AssertNotCalled(t, "GetOrCreateCall", mock.Anything, mock.Anything, mock.Anything)
}

func TestEndCall(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	callRepo := new(mocks.VideoCallRepositoryMock)
	svc := NewService(testConfig(), roomRepo, callRepo)

	roomRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	callRepo.On("EndCall", mock.Anything, 5).Return(nil).Once()

	require.NoError(t, svc.EndCall(context.Background(), 5, 1))
	callRepo.AssertExpectations(t)
}
