package support_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"cleanserve/internal/logger"
	"cleanserve/internal/models"
	support "cleanserve/internal/support/service"
)

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

func setupService() (*support.SupportService, *MockSupportDB, *MockUserResolver) {
	mockDB := new(MockSupportDB)
	mockUsers := new(MockUserResolver)
	service := support.NewSupportService(mockDB, mockUsers, nil, "cleanserve.support.events", logger.NewLogger())
	return service, mockDB, mockUsers
}

func TestCreateTicketDefaults(t *testing.T) {
	service, mockDB, _ := setupService()

	mockDB.On("CreateTicket", mock.MatchedBy(func(ticket models.SupportTicket) bool {
		return ticket.Status == models.TicketOpen &&
			ticket.Priority == models.PriorityMedium &&
			ticket.UserID == "user1"
	})).Return(nil)
	mockDB.On("CreateMessage", mock.MatchedBy(func(msg models.SupportMessage) bool {
		return msg.SenderID == "user1" && msg.Message == "The cleaner was late"
	})).Return(nil)

	ticket, msg, err := service.CreateTicket("user1", "Late arrival", "تأخر الفني", "The cleaner was late", "")

	assert.NoError(t, err)
	assert.Equal(t, models.TicketOpen, ticket.Status)
	assert.Equal(t, models.PriorityMedium, ticket.Priority)
	assert.Equal(t, ticket.ID, msg.TicketID)
	assert.Equal(t, "user1", msg.SenderID)
	mockDB.AssertExpectations(t)
}

func TestCreateTicketInvalidPriority(t *testing.T) {
	service, mockDB, _ := setupService()

	_, _, err := service.CreateTicket("user1", "Subject", "", "message", "urgent")

	assert.ErrorIs(t, err, support.ErrInvalidPriority)
	mockDB.AssertNotCalled(t, "CreateTicket", mock.Anything)
}

func TestOwnerReplyReopensResolvedTicket(t *testing.T) {
	service, mockDB, _ := setupService()

	ticket := &models.SupportTicket{
		ID:     "t1",
		UserID: "user1",
		Status: models.TicketResolved,
	}
	mockDB.On("GetTicketByID", "t1").Return(ticket, nil)
	mockDB.On("CreateMessage", mock.Anything).Return(nil)
	mockDB.On("UpdateTicket", mock.MatchedBy(func(updated models.SupportTicket) bool {
		return updated.Status == models.TicketOpen
	})).Return(nil)

	msg, err := service.SendMessage("t1", "user1", models.RoleCustomer, "still not fixed", nil)

	assert.NoError(t, err)
	assert.Equal(t, "user1", msg.SenderID)
	mockDB.AssertExpectations(t)
}

func TestStaffReplyKeepsResolvedStatus(t *testing.T) {
	service, mockDB, _ := setupService()

	ticket := &models.SupportTicket{
		ID:     "t1",
		UserID: "user1",
		Status: models.TicketResolved,
	}
	mockDB.On("GetTicketByID", "t1").Return(ticket, nil)
	mockDB.On("CreateMessage", mock.Anything).Return(nil)

	_, err := service.SendMessage("t1", "admin1", models.RoleAdmin, "glad it is sorted", nil)

	assert.NoError(t, err)
	mockDB.AssertNotCalled(t, "UpdateTicket", mock.Anything)
}

func TestTicketAccessControl(t *testing.T) {
	service, mockDB, _ := setupService()

	ticket := &models.SupportTicket{ID: "t1", UserID: "user1", Status: models.TicketOpen}
	mockDB.On("GetTicketByID", "t1").Return(ticket, nil)

	_, err := service.SendMessage("t1", "intruder", models.RoleCustomer, "hello", nil)
	assert.ErrorIs(t, err, support.ErrForbidden)

	_, err = service.GetTicketMessages("t1", "intruder", models.RoleTechnician)
	assert.ErrorIs(t, err, support.ErrForbidden)

	_, err = service.GetTicket("t1", "intruder", models.RoleCustomer)
	assert.ErrorIs(t, err, support.ErrForbidden)

	mockDB.AssertNotCalled(t, "CreateMessage", mock.Anything)
}

func TestAssignTicketRejectsNonStaff(t *testing.T) {
	service, mockDB, mockUsers := setupService()

	technician := &models.User{ID: "tech1", Role: models.RoleTechnician}
	mockUsers.On("GetUserByID", "tech1").Return(technician, nil)

	_, err := service.AssignTicket("t1", "tech1", "admin1")

	assert.ErrorIs(t, err, support.ErrAssigneeRole)
	mockDB.AssertNotCalled(t, "UpdateTicket", mock.Anything)
}

func TestAssignTicketMovesToInProgress(t *testing.T) {
	service, mockDB, mockUsers := setupService()

	agent := &models.User{ID: "agent1", Role: models.RoleSupport}
	ticket := &models.SupportTicket{ID: "t1", UserID: "user1", Status: models.TicketOpen}
	mockUsers.On("GetUserByID", "agent1").Return(agent, nil)
	mockDB.On("GetTicketByID", "t1").Return(ticket, nil)
	mockDB.On("UpdateTicket", mock.MatchedBy(func(updated models.SupportTicket) bool {
		return updated.AssignedTo == "agent1" && updated.Status == models.TicketInProgress
	})).Return(nil)

	updated, err := service.AssignTicket("t1", "agent1", "admin1")

	assert.NoError(t, err)
	assert.Equal(t, models.TicketInProgress, updated.Status)
	mockDB.AssertExpectations(t)
}

func TestUpdateTicketStatusRejectsUnknownStatus(t *testing.T) {
	service, mockDB, _ := setupService()

	_, err := service.UpdateTicketStatus("t1", "archived", "admin1")

	assert.ErrorIs(t, err, support.ErrInvalidStatus)
	mockDB.AssertNotCalled(t, "GetTicketByID", mock.Anything)
}

func TestGetAllTicketsValidatesFilters(t *testing.T) {
	service, mockDB, _ := setupService()

	_, err := service.GetAllTickets("archived", "")
	assert.ErrorIs(t, err, support.ErrInvalidStatus)

	_, err = service.GetAllTickets("", "urgent")
	assert.ErrorIs(t, err, support.ErrInvalidPriority)

	mockDB.On("GetAllTickets", models.TicketOpen, models.TicketPriority("")).
		Return([]models.SupportTicket{{ID: "t1"}}, nil)
	tickets, err := service.GetAllTickets(models.TicketOpen, "")
	assert.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestGetFAQsGroupsWithoutCategory(t *testing.T) {
	service, mockDB, _ := setupService()

	faqs := []models.FAQ{
		{ID: "f1", Category: "booking", QuestionEn: "Q1", AnswerEn: "A1"},
		{ID: "f2", Category: "payment", QuestionEn: "Q2", AnswerEn: "A2"},
		{ID: "f3", Category: "booking", QuestionEn: "Q3", AnswerEn: "A3"},
	}
	mockDB.On("GetFAQs", "").Return(faqs, nil)

	result, err := service.GetFAQs("", "en")

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.ElementsMatch(t, []string{"booking", "payment"}, result.Categories)
	assert.Len(t, result.Grouped["booking"], 2)
	assert.Empty(t, result.FAQs)
}

func TestGetFAQsFlatWithCategory(t *testing.T) {
	service, mockDB, _ := setupService()

	faqs := []models.FAQ{
		{ID: "f1", Category: "booking", QuestionEn: "Q1", QuestionAr: "س1", AnswerEn: "A1", AnswerAr: "ج1"},
	}
	mockDB.On("GetFAQs", "booking").Return(faqs, nil)

	result, err := service.GetFAQs("booking", "ar")

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Len(t, result.FAQs, 1)
	assert.Equal(t, "س1", result.FAQs[0].Question)
	assert.Nil(t, result.Grouped)
}
