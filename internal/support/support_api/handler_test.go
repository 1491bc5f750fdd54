package support_api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"cleanserve/internal/auth"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
	supportdb "cleanserve/internal/support/db"
	support "cleanserve/internal/support/service"
	"cleanserve/internal/support/support_api"
)

const staffTestSecret = "staff-test-secret"

type MockSupportDB struct {
	mock.Mock
}

func (m *MockSupportDB) CreateTicket(ticket models.SupportTicket) error {
	args := m.Called(ticket)
	return args.Error(0)
}

func (m *MockSupportDB) GetTicketByID(id string) (*models.SupportTicket, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportTicket), args.Error(1)
}

func (m *MockSupportDB) UpdateTicket(ticket models.SupportTicket) error {
	args := m.Called(ticket)
	return args.Error(0)
}

func (m *MockSupportDB) GetTicketsByUser(userID string) ([]models.SupportTicket, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SupportTicket), args.Error(1)
}

func (m *MockSupportDB) GetAllTickets(status models.TicketStatus, priority models.TicketPriority) ([]models.SupportTicket, error) {
	args := m.Called(status, priority)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SupportTicket), args.Error(1)
}

func (m *MockSupportDB) CreateMessage(message models.SupportMessage) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockSupportDB) GetMessagesByTicket(ticketID string) ([]models.SupportMessage, error) {
	args := m.Called(ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SupportMessage), args.Error(1)
}

func (m *MockSupportDB) GetFAQs(category string) ([]models.FAQ, error) {
	args := m.Called(category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FAQ), args.Error(1)
}

type MockUserResolver struct {
	mock.Mock
}

func (m *MockUserResolver) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserResolver) GetUsersByID(ids []string) (map[string]*models.User, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*models.User), args.Error(1)
}

// staffRouter mirrors the ticket-status route wiring: admin and support
// both pass the role guard.
func staffRouter(handler *support_api.Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(staffTestSecret))
		r.Use(auth.RequireRole(models.RoleAdmin, models.RoleSupport))
		r.Put("/api/v2/admin/support/tickets/{id}/status", handler.UpdateTicketStatus)
	})
	return r
}

func setupStaffRouter() (chi.Router, *MockSupportDB) {
	mockDB := new(MockSupportDB)
	mockUsers := new(MockUserResolver)
	service := support.NewSupportService(mockDB, mockUsers, nil, "cleanserve.support.events", logger.NewLogger())
	return staffRouter(support_api.NewHandler(service, logger.NewLogger())), mockDB
}

func staffToken(t *testing.T, userID string, role models.UserRole) string {
	t.Helper()
	token, err := auth.IssueToken(staffTestSecret, &models.User{
		ID:       userID,
		Role:     role,
		Language: "en",
	}, time.Hour)
	assert.NoError(t, err)
	return token
}

func putStatus(t *testing.T, router chi.Router, token string, status models.TicketStatus) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"status": status})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/v2/admin/support/tickets/t1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSupportRoleMayUpdateTicketStatus(t *testing.T) {
	router, mockDB := setupStaffRouter()

	mockDB.On("GetTicketByID", "t1").Return(&models.SupportTicket{
		ID:     "t1",
		UserID: "cust-1",
		Status: models.TicketOpen,
	}, nil)
	mockDB.On("UpdateTicket", mock.MatchedBy(func(ticket models.SupportTicket) bool {
		return ticket.Status == models.TicketResolved
	})).Return(nil)

	rec := putStatus(t, router, staffToken(t, "support-1", models.RoleSupport), models.TicketResolved)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockDB.AssertExpectations(t)
}

func TestAdminRoleMayUpdateTicketStatus(t *testing.T) {
	router, mockDB := setupStaffRouter()

	mockDB.On("GetTicketByID", "t1").Return(&models.SupportTicket{
		ID:     "t1",
		UserID: "cust-1",
		Status: models.TicketOpen,
	}, nil)
	mockDB.On("UpdateTicket", mock.Anything).Return(nil)

	rec := putStatus(t, router, staffToken(t, "admin-1", models.RoleAdmin), models.TicketClosed)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNonStaffRolesCannotUpdateTicketStatus(t *testing.T) {
	router, mockDB := setupStaffRouter()

	for _, role := range []models.UserRole{models.RoleCustomer, models.RoleTechnician} {
		rec := putStatus(t, router, staffToken(t, "u1", role), models.TicketClosed)
		assert.Equal(t, http.StatusForbidden, rec.Code, "role %s", role)
	}
	mockDB.AssertNotCalled(t, "UpdateTicket", mock.Anything)
}

func TestUpdateTicketStatusNotFound(t *testing.T) {
	router, mockDB := setupStaffRouter()

	mockDB.On("GetTicketByID", "t1").Return(nil, supportdb.ErrNotFound)

	rec := putStatus(t, router, staffToken(t, "support-1", models.RoleSupport), models.TicketOpen)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
