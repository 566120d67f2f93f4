package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"famnet-backend/internal/mocks"
	"famnet-backend/internal/models"
	"famnet-backend/internal/repositories"
)

func setupFriendRouter(handler *FriendHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/friends", handler.ListFriends)
	r.GET("/friends/requests", handler.ListPending)
	r.POST("/friends/requests", handler.SendRequest)
	r.POST("/friends/requests/:user_id/accept", handler.Accept)
	r.POST("/friends/requests/:user_id/decline", handler.Decline)
	r.DELETE("/friends/:user_id", handler.Remove)
	return r
}

func TestSendRequestSuccess(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewFriendHandler(friendRepo, userRepo, nil)
	router := setupFriendRouter(handler)

	userRepo.On("GetByID", mock.Anything, 2).Return(models.User{ID: 2}, nil).Once()
	friendRepo.On("SendRequest", mock.Anything, 1, 2).Return(models.Friendship{ID: 9, FromUserID: 1, ToUserID: 2, Status: models.FriendshipRequested}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	friendRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestSendRequestDuplicateConflict(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewFriendHandler(friendRepo, userRepo, nil)
	router := setupFriendRouter(handler)

	userRepo.On("GetByID", mock.Anything, 2).Return(models.User{ID: 2}, nil).Once()
	friendRepo.On("SendRequest", mock.Anything, 1, 2).Return(models.Friendship{}, repositories.ErrAlreadyRequested).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSendRequestSelfRejected(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewFriendHandler(friendRepo, userRepo, nil)
	router := setupFriendRouter(handler)

	userRepo.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1}, nil).Once()
	friendRepo.On("SendRequest", mock.Anything, 1, 1).Return(models.Friendship{}, repositories.ErrSelfFriendship).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"user_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendRequestUnknownTarget(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewFriendHandler(new(mocks.FriendshipRepositoryMock), userRepo, nil)
	router := setupFriendRouter(handler)

	userRepo.On("GetByID", mock.Anything, 77).Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"user_id":77}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAcceptMissingRequest(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendHandler(friendRepo, new(mocks.UserRepositoryMock), nil)
	router := setupFriendRouter(handler)

	friendRepo.On("Accept", mock.Anything, 1, 5).Return(repositories.ErrRequestNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/5/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeclineSuccess(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendHandler(friendRepo, new(mocks.UserRepositoryMock), nil)
	router := setupFriendRouter(handler)

	friendRepo.On("Decline", mock.Anything, 1, 5).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/5/decline", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	friendRepo.AssertExpectations(t)
}

func TestRemoveFriendIdempotent(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendHandler(friendRepo, new(mocks.UserRepositoryMock), nil)
	router := setupFriendRouter(handler)

	// Removing a non-friend succeeds quietly.
	friendRepo.On("Remove", mock.Anything, 1, 8).Return(nil).Twice()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/friends/8", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	friendRepo.AssertExpectations(t)
}

func TestListFriends(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendHandler(friendRepo, new(mocks.UserRepositoryMock), nil)
	router := setupFriendRouter(handler)

	friendRepo.On("ListFriends", mock.Anything, 1).Return([]models.PublicUser{{ID: 2, IsOnline: true}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_online":true`)
}
