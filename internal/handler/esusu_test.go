package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adetunjii/esusu-engine/internal/config"
	"github.com/adetunjii/esusu-engine/internal/domain"
	"github.com/adetunjii/esusu-engine/internal/notify"
	"github.com/adetunjii/esusu-engine/internal/repository"
	"github.com/adetunjii/esusu-engine/internal/service"
	"github.com/adetunjii/esusu-engine/tests/mocks"
)

var handlerNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

type handlerFixture struct {
	router *mux.Router
	store  *mocks.MemoryGroupStore
}

func newHandlerFixture() *handlerFixture {
	store := mocks.NewMemoryGroupStore()
	dispatcher := notify.NewDispatcher(&mocks.CapturingNotifier{})
	cache := service.NewViewCache(nil)
	clock := mocks.FixedClock{Time: handlerNow}
	cfg := &config.Config{
		Business: config.BusinessConfig{
			PlatformFeeRate:      "0.015",
			MinDeadlineBuffer:    "24h",
			MinGroupSize:         3,
			CommissionMinPercent: "1",
			CommissionMaxPercent: "10",
			CommissionMinAmount:  "100",
			ReservedGroupNames:   "admin,esusu,support",
		},
	}

	dir := &mocks.MockMembershipDirectory{}
	formation := service.NewFormationService(store, dir, dispatcher, cache, clock, cfg)
	invitations := service.NewInvitationService(store, dispatcher, cache, clock, cfg)
	slots := service.NewSlotService(store, dispatcher, cache, clock)
	h := NewEsusuHandler(formation, invitations, slots)

	router := mux.NewRouter()
	router.HandleFunc("/esusu/groups", h.CreateGroup).Methods("POST")
	router.HandleFunc("/esusu/groups/{groupId}/response", h.Respond).Methods("POST")
	router.HandleFunc("/esusu/groups/{groupId}/slots", h.AvailableSlots).Methods("GET")
	router.HandleFunc("/esusu/groups/{groupId}/slots", h.SelectSlot).Methods("POST")
	router.HandleFunc("/esusu/groups/{groupId}/waiting-room", h.WaitingRoom).Methods("GET")

	return &handlerFixture{router: router, store: store}
}

func (f *handlerFixture) seedGroup(t *testing.T, orderType string, statuses ...string) *domain.EsusuGroup {
	t.Helper()

	group := &domain.EsusuGroup{
		ID:                    uuid.New(),
		CommunityID:           "community-1",
		CreatorID:             "user-1",
		Name:                  "Thrift Circle",
		NumberOfParticipants:  len(statuses) + 1,
		ContributionAmount:    decimal.NewFromInt(1000),
		Frequency:             domain.FrequencyMonthly,
		ParticipationDeadline: handlerNow.AddDate(0, 0, 3),
		CollectionDate:        handlerNow.AddDate(0, 0, 7),
		PayoutOrderType:       orderType,
		Status:                domain.GroupStatusPendingMembers,
		CreatedAt:             handlerNow,
	}

	respondedAt := handlerNow
	participants := []*domain.EsusuParticipant{{
		GroupID:      group.ID,
		UserID:       "user-1",
		UserName:     "Ada",
		InviteStatus: domain.InviteStatusAccepted,
		IsCreator:    true,
		RespondedAt:  &respondedAt,
	}}
	for i, status := range statuses {
		p := &domain.EsusuParticipant{
			GroupID:      group.ID,
			UserID:       fmt.Sprintf("user-%d", i+2),
			UserName:     fmt.Sprintf("Member %d", i+2),
			InviteStatus: status,
		}
		if status != domain.InviteStatusInvited {
			at := handlerNow
			p.RespondedAt = &at
		}
		participants = append(participants, p)
	}

	require.NoError(t, f.store.CreateGroup(context.Background(), group, participants))
	return group
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestRespondEndpoint_Accept(t *testing.T) {
	f := newHandlerFixture()
	group := f.seedGroup(t, domain.PayoutOrderRandom,
		domain.InviteStatusInvited, domain.InviteStatusInvited)

	rec := f.do(t, http.MethodPost, "/esusu/groups/"+group.ID.String()+"/response",
		domain.RespondRequest{UserID: "user-2", Accept: boolPtr(true)})

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.RespondResponse
	decodeData(t, rec, &result)
	assert.Equal(t, domain.InviteStatusAccepted, result.InviteStatus)
	assert.False(t, result.Cancelled)
	assert.False(t, result.Ready)
}

func TestRespondEndpoint_DeclineCancelsGroup(t *testing.T) {
	f := newHandlerFixture()
	group := f.seedGroup(t, domain.PayoutOrderRandom, domain.InviteStatusInvited)

	rec := f.do(t, http.MethodPost, "/esusu/groups/"+group.ID.String()+"/response",
		domain.RespondRequest{UserID: "user-2", Accept: boolPtr(false)})

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.RespondResponse
	decodeData(t, rec, &result)
	assert.Equal(t, domain.InviteStatusDeclined, result.InviteStatus)
	assert.True(t, result.Cancelled)
}

func TestRespondEndpoint_MissingAccept(t *testing.T) {
	f := newHandlerFixture()
	group := f.seedGroup(t, domain.PayoutOrderRandom, domain.InviteStatusInvited)

	rec := f.do(t, http.MethodPost, "/esusu/groups/"+group.ID.String()+"/response",
		map[string]interface{}{"user_id": "user-2"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespondEndpoint_SecondResponseRejected(t *testing.T) {
	f := newHandlerFixture()
	group := f.seedGroup(t, domain.PayoutOrderRandom,
		domain.InviteStatusAccepted, domain.InviteStatusInvited)

	rec := f.do(t, http.MethodPost, "/esusu/groups/"+group.ID.String()+"/response",
		domain.RespondRequest{UserID: "user-2", Accept: boolPtr(false)})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var envelope struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "ALREADY_RESPONDED", envelope.Code)
}

func TestCreateGroupEndpoint_ValidationFailure(t *testing.T) {
	f := newHandlerFixture()

	// missing frequency and roster
	rec := f.do(t, http.MethodPost, "/esusu/groups", map[string]interface{}{
		"creator_id":   "user-1",
		"community_id": "community-1",
		"name":         "Thrift Circle",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGroupEndpoint_MalformedBody(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/esusu/groups", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlotsEndpoint_List(t *testing.T) {
	f := newHandlerFixture()
	group := f.seedGroup(t, domain.PayoutOrderFCFS,
		domain.InviteStatusAccepted, domain.InviteStatusInvited)

	rec := f.do(t, http.MethodGet, "/esusu/groups/"+group.ID.String()+"/slots", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.SlotsResponse
	decodeData(t, rec, &result)
	assert.Equal(t, []int{1, 2, 3}, result.Available)
	assert.Empty(t, result.Taken)
}

func TestSlotsEndpoint_Select(t *testing.T) {
	f := newHandlerFixture()
	group := f.seedGroup(t, domain.PayoutOrderFCFS,
		domain.InviteStatusAccepted, domain.InviteStatusInvited)

	rec := f.do(t, http.MethodPost, "/esusu/groups/"+group.ID.String()+"/slots",
		domain.SelectSlotRequest{UserID: "user-2", SlotNumber: 2})

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.SelectSlotResponse
	decodeData(t, rec, &result)
	assert.Equal(t, 2, result.SlotNumber)

	rec = f.do(t, http.MethodPost, "/esusu/groups/"+group.ID.String()+"/slots",
		domain.SelectSlotRequest{UserID: "user-1", SlotNumber: 2})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSlotsEndpoint_InvalidGroupID(t *testing.T) {
	f := newHandlerFixture()

	rec := f.do(t, http.MethodGet, "/esusu/groups/not-a-uuid/slots", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWaitingRoomEndpoint(t *testing.T) {
	f := newHandlerFixture()
	group := f.seedGroup(t, domain.PayoutOrderFCFS,
		domain.InviteStatusAccepted, domain.InviteStatusAccepted)
	require.NoError(t, f.store.WithGroupTx(context.Background(), group.ID, func(tx repository.GroupTx) error {
		return tx.AssignSlot(context.Background(), "user-3", 1)
	}))

	rec := f.do(t, http.MethodGet, "/esusu/groups/"+group.ID.String()+"/waiting-room", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var view domain.WaitingRoomView
	decodeData(t, rec, &view)
	assert.Equal(t, group.Name, view.GroupName)
	assert.Equal(t, 3, view.AcceptedCount)
	assert.Equal(t, 0, view.PendingCount)

	// creator first, then slot holders, then the rest
	require.Len(t, view.Roster, 3)
	assert.Equal(t, "user-1", view.Roster[0].UserID)
	assert.Equal(t, "user-3", view.Roster[1].UserID)
	assert.Equal(t, "user-2", view.Roster[2].UserID)
}

func TestWaitingRoomEndpoint_UnknownGroup(t *testing.T) {
	f := newHandlerFixture()

	rec := f.do(t, http.MethodGet, "/esusu/groups/"+uuid.NewString()+"/waiting-room", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func boolPtr(b bool) *bool { return &b }
