package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"squad-management-api/internal/constants"
	"squad-management-api/internal/database"
	"squad-management-api/internal/dto"
	"squad-management-api/internal/models"
	"squad-management-api/internal/repository"
	"squad-management-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SquadHandlerTestSuite defines the test suite for SquadHandler
type SquadHandlerTestSuite struct {
	suite.Suite
	db         *gorm.DB
	handler    *SquadHandler
	reputation *services.StaticReputationSource
}

// SetupTest runs before each test
func (suite *SquadHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Run migrations
	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Squad{},
		&models.SquadMember{},
		&models.SquadInvite{},
		&models.OpenPosition{},
		&models.Application{},
		&models.Notification{},
	)
	suite.Require().NoError(err)

	// Set the test DB as the default database
	database.SetDB(suite.db)

	squadRepo := repository.NewSquadRepository(suite.db)
	positionRepo := repository.NewPositionRepository(suite.db)
	notificationRepo := repository.NewNotificationRepository(suite.db)

	suite.reputation = &services.StaticReputationSource{Scores: map[uint64]int{}}
	notifier := services.NewNotificationService(notificationRepo)
	squadService := services.NewSquadService(squadRepo, positionRepo, suite.reputation, notifier)

	suite.handler = NewSquadHandler(squadService)

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *SquadHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper function to create test data
func (suite *SquadHandlerTestSuite) createTestUser(username string) *models.User {
	user := &models.User{
		Username:     username,
		PasswordHash: "hashedpassword",
	}
	suite.db.Create(user)
	return user
}

func (suite *SquadHandlerTestSuite) createTestSquad(name string, captainID uint64) *models.Squad {
	squad := &models.Squad{
		Name:      name,
		MinSize:   constants.SquadMinSize,
		MaxSize:   constants.SquadMaxSize,
		CreatorID: captainID,
		CaptainID: captainID,
	}
	suite.db.Create(squad)

	member := &models.SquadMember{
		SquadID:  squad.ID,
		UserID:   captainID,
		Role:     models.RoleFlex,
		JoinedAt: time.Now(),
	}
	suite.db.Create(member)

	return squad
}

// Helper function to create authenticated context
func (suite *SquadHandlerTestSuite) createAuthContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

// Helper function to set squad context (simulates RequireSquadAccess middleware)
func (suite *SquadHandlerTestSuite) setSquadContext(c *gin.Context, squad models.Squad, member models.SquadMember) {
	c.Set("squad", squad)
	c.Set("squad_member", member)
}

// TestCreateSquad_Success tests successful squad creation
func (suite *SquadHandlerTestSuite) TestCreateSquad_Success() {
	user := suite.createTestUser("captain")

	requestBody := map[string]interface{}{
		"name":     "Alpha",
		"max_size": 5,
		"role":     "TRADER",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/squads", body, user.ID)

	suite.handler.CreateSquad(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response dto.SquadDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Alpha", response.Name)
	assert.Equal(suite.T(), user.ID, response.CaptainID)
	assert.False(suite.T(), response.IsActive)
}

// TestCreateSquad_QuotaReached tests creation past the quota
func (suite *SquadHandlerTestSuite) TestCreateSquad_QuotaReached() {
	user := suite.createTestUser("captain")
	suite.createTestSquad("Existing", user.ID)

	requestBody := map[string]interface{}{
		"name": "Second",
		"role": "TRADER",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/squads", body, user.ID)

	suite.handler.CreateSquad(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

// TestCreateSquad_InvalidRequest tests creation with a missing name
func (suite *SquadHandlerTestSuite) TestCreateSquad_InvalidRequest() {
	user := suite.createTestUser("captain")

	requestBody := map[string]interface{}{
		"role": "TRADER",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/squads", body, user.ID)

	suite.handler.CreateSquad(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestListSquads_Success tests listing the user's squads
func (suite *SquadHandlerTestSuite) TestListSquads_Success() {
	user := suite.createTestUser("captain")
	squad := suite.createTestSquad("Alpha", user.ID)

	c, w := suite.createAuthContext("GET", "/api/squads", nil, user.ID)

	suite.handler.ListSquads(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string][]dto.SquadWithRoleDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	squads := response["squads"]
	assert.Len(suite.T(), squads, 1)
	assert.Equal(suite.T(), squad.Name, squads[0].Name)
	assert.Equal(suite.T(), models.RoleFlex, squads[0].Role)
}

// TestGetSquad_Success tests squad detail retrieval
func (suite *SquadHandlerTestSuite) TestGetSquad_Success() {
	user := suite.createTestUser("captain")
	squad := suite.createTestSquad("Alpha", user.ID)

	var member models.SquadMember
	suite.db.Where("squad_id = ? AND user_id = ?", squad.ID, user.ID).First(&member)

	c, w := suite.createAuthContext("GET", "/api/squads/1", nil, user.ID)
	suite.setSquadContext(c, *squad, member)

	suite.handler.GetSquad(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.SquadDetailDTO
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), squad.Name, response.Name)
	assert.Len(suite.T(), response.Members, 1)
	assert.Equal(suite.T(), models.RoleFlex, response.YourRole)
}

// TestUpdateSquad_NotCaptain tests update by a non-captain
func (suite *SquadHandlerTestSuite) TestUpdateSquad_NotCaptain() {
	captain := suite.createTestUser("captain")
	other := suite.createTestUser("other")
	suite.createTestSquad("Alpha", captain.ID)

	requestBody := map[string]interface{}{
		"name": "Renamed",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/squads/1", body, other.ID)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	suite.handler.UpdateSquad(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestGetQuota_Success tests the quota endpoint
func (suite *SquadHandlerTestSuite) TestGetQuota_Success() {
	user := suite.createTestUser("captain")
	suite.reputation.Scores[user.ID] = 1850

	c, w := suite.createAuthContext("GET", "/api/squads/quota", nil, user.ID)

	suite.handler.GetQuota(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response services.SquadQuota
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), response.CanCreate)
	assert.Equal(suite.T(), constants.QuotaTier3, response.MaxAllowed)
}

// TestLeaveSquad_Captain tests that the captain cannot leave
func (suite *SquadHandlerTestSuite) TestLeaveSquad_Captain() {
	captain := suite.createTestUser("captain")
	suite.createTestSquad("Alpha", captain.ID)

	c, w := suite.createAuthContext("POST", "/api/squads/1/leave", nil, captain.ID)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	suite.handler.LeaveSquad(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

// TestRemoveMember_Success tests member removal by the captain
func (suite *SquadHandlerTestSuite) TestRemoveMember_Success() {
	captain := suite.createTestUser("captain")
	member := suite.createTestUser("member")
	squad := suite.createTestSquad("Alpha", captain.ID)
	suite.db.Create(&models.SquadMember{
		SquadID:  squad.ID,
		UserID:   member.ID,
		Role:     models.RoleScout,
		JoinedAt: time.Now(),
	})

	c, w := suite.createAuthContext("DELETE", "/api/squads/1/members/2", nil, captain.ID)
	c.Params = gin.Params{
		{Key: "id", Value: "1"},
		{Key: "user_id", Value: "2"},
	}

	suite.handler.RemoveMember(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.SquadMember{}).
		Where("squad_id = ? AND user_id = ?", squad.ID, member.ID).
		Count(&count)
	assert.Zero(suite.T(), count)
}

// TestSuite runs the test suite
func TestSquadHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(SquadHandlerTestSuite))
}
