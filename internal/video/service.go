package video

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"famnet-backend/internal/chat"
	"famnet-backend/internal/config"
	"famnet-backend/internal/models"
	"famnet-backend/internal/repositories"
)

// Service issues SFU access tokens for room calls and tracks call lifecycle.
type Service struct {
	cfg   config.VideoConfig
	rooms repositories.RoomRepository
	calls repositories.VideoCallRepository
}

func NewService(cfg config.VideoConfig, rooms repositories.RoomRepository, calls repositories.VideoCallRepository) *Service {
	return &Service{cfg: cfg, rooms: rooms, calls: calls}
}

// TokenResponse is returned to the client joining a call.
type TokenResponse struct {
	Token      string             `json:"token"`
	ServerURL  string             `json:"server_url"`
	RoomName   string             `json:"room_name"`
	IceServers []models.IceServer `json:"ice_servers"`
}

type videoGrant struct {
	Room     string `json:"room"`
	RoomJoin bool   `json:"roomJoin"`
}

type accessClaims struct {
	Video videoGrant `json:"video"`
	Name  string     `json:"name"`
	jwt.RegisteredClaims
}

// JoinCall ensures an ongoing call exists for the room and returns an access
// token granting the user entry to the SFU room.
func (s *Service) JoinCall(ctx context.Context, roomID, userID int, displayName string) (*TokenResponse, error) {
	ok, err := s.rooms.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, chat.ErrNotParticipant
	}

	call, err := s.calls.GetOrCreateCall(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.calls.AddParticipant(ctx, call.ID, userID); err != nil {
		return nil, err
	}

	roomName := fmt.Sprintf("room_%d", roomID)
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Video: videoGrant{Room: roomName, RoomJoin: true},
		Name:  displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.APIKey,
			Subject:   fmt.Sprintf("user_%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(6 * time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(s.cfg.APISecret))
	if err != nil {
		return nil, err
	}

	iceServers, err := s.calls.ListIceServers(ctx)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		Token:      signed,
		ServerURL:  s.cfg.ServerURL,
		RoomName:   roomName,
		IceServers: iceServers,
	}, nil
}

// EndCall marks the room's ongoing call as ended.
func (s *Service) EndCall(ctx context.Context, roomID, userID int) error {
	ok, err := s.rooms.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return chat.ErrNotParticipant
	}
	return s.calls.EndCall(ctx, roomID)
}
