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

	"famnet-backend/internal/chat"
	"famnet-backend/internal/mocks"
	"famnet-backend/internal/models"
)

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(group, action string, results any) {}

func setupFamilyRouter(handler *FamilyHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/families", handler.Create)
	r.POST("/families/join", handler.Join)
	r.GET("/families/:family_id/members", handler.Members)
	r.POST("/families/:family_id/invite-code", handler.RotateInviteCode)
	r.DELETE("/families/:family_id/members/:user_id", handler.RemoveMember)
	r.POST("/families/:family_id/leave", handler.Leave)
	r.POST("/families/:family_id/admins/:user_id", handler.GrantAdmin)
	r.DELETE("/families/:family_id", handler.Delete)
	return r
}

func familyFixtures(t *testing.T) (*mocks.FamilyRepositoryMock, *mocks.RoomRepositoryMock, *gin.Engine) {
	t.Helper()
	familyRepo := new(mocks.FamilyRepositoryMock)
	roomRepo := new(mocks.RoomRepositoryMock)
	roomService := chat.NewRoomService(roomRepo, new(mocks.FriendshipRepositoryMock), familyRepo, nopBroadcaster{})
	handler := NewFamilyHandler(familyRepo, roomService, nil)
	return familyRepo, roomRepo, setupFamilyRouter(handler)
}

func expectRoomSync(familyRepo *mocks.FamilyRepositoryMock, roomRepo *mocks.RoomRepositoryMock, family models.Family, memberIDs []int, roomID int) {
	familyRepo.On("GetFamily", mock.Anything, family.ID).Return(family, nil)
	familyRepo.On("MemberIDs", mock.Anything, family.ID).Return(memberIDs, nil)
	roomRepo.On("SyncFamilyRoom", mock.Anything, family, memberIDs).Return(models.Room{ID: roomID, Type: models.RoomFamily}, nil)
	roomRepo.On("Participants", mock.Anything, roomID).Return([]models.PublicUser{}, nil)
}

func TestCreateFamilySyncsRoom(t *testing.T) {
	familyRepo, roomRepo, router := familyFixtures(t)

	family := models.Family{ID: 9, CreatorID: 1, Name: "smith", InviteCode: "QWERTYUIOP"}
	familyRepo.On("CreateFamily", mock.Anything, 1, "smith").Return(family, nil).Once()
	expectRoomSync(familyRepo, roomRepo, family, []int{1}, 12)

	req := httptest.NewRequest(http.MethodPost, "/families", bytes.NewBufferString(`{"name":"smith"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	roomRepo.AssertCalled(t, "SyncFamilyRoom", mock.Anything, family, []int{1})
}

func TestJoinFamilyByInviteCode(t *testing.T) {
	familyRepo, roomRepo, router := familyFixtures(t)

	family := models.Family{ID: 9, CreatorID: 2, Name: "smith", InviteCode: "ASDFGHJKL1"}
	familyRepo.On("GetByInviteCode", mock.Anything, "ASDFGHJKL1").Return(family, nil).Once()
	familyRepo.On("AddMember", mock.Anything, 9, 1, "cousin").Return(nil).Once()
	expectRoomSync(familyRepo, roomRepo, family, []int{1, 2}, 12)

	req := httptest.NewRequest(http.MethodPost, "/families/join", bytes.NewBufferString(`{"invite_code":"ASDFGHJKL1","relation":"cousin"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	roomRepo.AssertCalled(t, "SyncFamilyRoom", mock.Anything, family, []int{1, 2})
}

func TestJoinFamilyBadCode(t *testing.T) {
	familyRepo, _, router := familyFixtures(t)

	familyRepo.On("GetByInviteCode", mock.Anything, "WRONG12345").Return(models.Family{}, assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/families/join", bytes.NewBufferString(`{"invite_code":"WRONG12345"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMembersRequiresMembership(t *testing.T) {
	familyRepo, _, router := familyFixtures(t)

	familyRepo.On("IsMember", mock.Anything, 9, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/families/9/members", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRemoveMemberSyncsRoom(t *testing.T) {
	familyRepo, roomRepo, router := familyFixtures(t)

	family := models.Family{ID: 9, CreatorID: 1, Name: "smith"}
	familyRepo.On("RemoveMember", mock.Anything, 9, 3).Return(nil).Once()
	expectRoomSync(familyRepo, roomRepo, family, []int{1, 2}, 12)

	req := httptest.NewRequest(http.MethodDelete, "/families/9/members/3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	roomRepo.AssertCalled(t, "SyncFamilyRoom", mock.Anything, family, []int{1, 2})
}

func TestRemoveCreatorForbidden(t *testing.T) {
	familyRepo, _, router := familyFixtures(t)

	family := models.Family{ID: 9, CreatorID: 1, Name: "smith"}
	familyRepo.On("GetFamily", mock.Anything, 9).Return(family, nil)

	req := httptest.NewRequest(http.MethodDelete, "/families/9/members/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	familyRepo.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatorCannotLeave(t *testing.T) {
	familyRepo, _, router := familyFixtures(t)

	familyRepo.On("GetFamily", mock.Anything, 9).Return(models.Family{ID: 9, CreatorID: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/families/9/leave", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteFamilyCreatorOnly(t *testing.T) {
	familyRepo, roomRepo, router := familyFixtures(t)

	familyRepo.On("GetFamily", mock.Anything, 9).Return(models.Family{ID: 9, CreatorID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/families/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	roomRepo.AssertNotCalled(t, "DeleteFamilyRoom", mock.Anything, mock.Anything)
	familyRepo.AssertNotCalled(t, "DeleteFamily", mock.Anything, mock.Anything)
}

func TestDeleteFamilyRemovesRoom(t *testing.T) {
	familyRepo, roomRepo, router := familyFixtures(t)

	familyRepo.On("GetFamily", mock.Anything, 9).Return(models.Family{ID: 9, CreatorID: 1}, nil).Once()
	roomRepo.On("DeleteFamilyRoom", mock.Anything, 9).Return(nil).Once()
	familyRepo.On("DeleteFamily", mock.Anything, 9).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/families/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	roomRepo.AssertExpectations(t)
	familyRepo.AssertExpectations(t)
}

func TestGrantAdminRequiresMembership(t *testing.T) {
	familyRepo, _, router := familyFixtures(t)

	familyRepo.On("GetFamily", mock.Anything, 9).Return(models.Family{ID: 9, CreatorID: 1}, nil).Once()
	familyRepo.On("IsMember", mock.Anything, 9, 4).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/families/9/admins/4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	familyRepo.AssertNotCalled(t, "GrantAdmin", mock.Anything, mock.Anything, mock.Anything)
}

func TestGrantAdminPromotesMember(t *testing.T) {
	familyRepo, _, router := familyFixtures(t)

	familyRepo.On("GetFamily", mock.Anything, 9).Return(models.Family{ID: 9, CreatorID: 1}, nil).Once()
	familyRepo.On("IsMember", mock.Anything, 9, 4).Return(true, nil).Once()
	familyRepo.On("GrantAdmin", mock.Anything, 9, 4).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/families/9/admins/4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	familyRepo.AssertExpectations(t)
}
