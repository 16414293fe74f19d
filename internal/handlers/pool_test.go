// internal/handlers/pool_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/services"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

type PoolHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	pool   *models.LicensePool
}

func (suite *PoolHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	suite.Require().NoError(err)

	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(db.AutoMigrate(
		&models.SoftwareItem{},
		&models.LicensePool{},
		&models.LicenseAssignment{},
	))
	suite.db = db

	software := &models.SoftwareItem{
		Name:          "Figma",
		Cost:          15,
		CostFrequency: models.CostFrequencyMonthly,
		Status:        models.CatalogStatusActive,
	}
	suite.Require().NoError(db.Create(software).Error)

	suite.pool = &models.LicensePool{SoftwareID: software.ID, TotalSeats: 2}
	suite.Require().NoError(db.Create(suite.pool).Error)

	handler := NewPoolHandler(services.NewPoolService(db, false))

	router := gin.New()
	pools := router.Group("/v1/pools")
	{
		pools.POST("", handler.CreatePool)
		pools.POST("/:id/allocate", handler.AllocateSeat)
		pools.POST("/:id/reclaim", handler.ReclaimSeats)
		pools.GET("/:id/utilization", handler.GetUtilization)
	}
	suite.router = router
}

func (suite *PoolHandlerTestSuite) request(method, path string, body interface{}) (*httptest.ResponseRecorder, utils.APIResponse) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)

	var resp utils.APIResponse
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func (suite *PoolHandlerTestSuite) allocatePath(poolID uuid.UUID) string {
	return fmt.Sprintf("/v1/pools/%s/allocate", poolID)
}

func (suite *PoolHandlerTestSuite) TestAllocateSeat() {
	rec, resp := suite.request(http.MethodPost, suite.allocatePath(suite.pool.ID), gin.H{
		"subject_id":   uuid.New().String(),
		"subject_type": "employee",
	})

	suite.Equal(http.StatusCreated, rec.Code)
	suite.True(resp.Success)

	var active int64
	suite.Require().NoError(suite.db.Model(&models.LicenseAssignment{}).
		Where("pool_id = ? AND status = ?", suite.pool.ID, models.LicenseStatusActive).
		Count(&active).Error)
	suite.Equal(int64(1), active)
}

func (suite *PoolHandlerTestSuite) TestAllocateUnknownPool() {
	rec, resp := suite.request(http.MethodPost, suite.allocatePath(uuid.New()), gin.H{
		"subject_id":   uuid.New().String(),
		"subject_type": "employee",
	})

	suite.Equal(http.StatusNotFound, rec.Code)
	suite.Require().NotNil(resp.Error)
	suite.Equal("NOT_FOUND", resp.Error.Code)
}

func (suite *PoolHandlerTestSuite) TestAllocateMalformedPoolID() {
	rec, resp := suite.request(http.MethodPost, "/v1/pools/not-a-uuid/allocate", gin.H{
		"subject_id":   uuid.New().String(),
		"subject_type": "employee",
	})

	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Require().NotNil(resp.Error)
	suite.Equal("BAD_REQUEST", resp.Error.Code)
}

func (suite *PoolHandlerTestSuite) TestDuplicateSeatConflict() {
	subjectID := uuid.New().String()
	body := gin.H{"subject_id": subjectID, "subject_type": "employee"}

	rec, _ := suite.request(http.MethodPost, suite.allocatePath(suite.pool.ID), body)
	suite.Equal(http.StatusCreated, rec.Code)

	rec, resp := suite.request(http.MethodPost, suite.allocatePath(suite.pool.ID), body)
	suite.Equal(http.StatusConflict, rec.Code)
	suite.Require().NotNil(resp.Error)
	suite.Equal("DUPLICATE_ACTIVE_ASSIGNMENT", resp.Error.Code)
}

func (suite *PoolHandlerTestSuite) TestReclaimSeats() {
	keep := uuid.New()
	release := uuid.New()
	for _, subject := range []uuid.UUID{keep, release} {
		rec, _ := suite.request(http.MethodPost, suite.allocatePath(suite.pool.ID), gin.H{
			"subject_id":   subject.String(),
			"subject_type": "employee",
		})
		suite.Require().Equal(http.StatusCreated, rec.Code)
	}

	rec, resp := suite.request(http.MethodPost,
		fmt.Sprintf("/v1/pools/%s/reclaim", suite.pool.ID), gin.H{
			"subject_ids": []string{release.String()},
		})

	suite.Equal(http.StatusOK, rec.Code)
	suite.True(resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	suite.Require().True(ok)
	suite.Equal(float64(1), data["reclaimed"])

	var active int64
	suite.Require().NoError(suite.db.Model(&models.LicenseAssignment{}).
		Where("pool_id = ? AND status = ?", suite.pool.ID, models.LicenseStatusActive).
		Count(&active).Error)
	suite.Equal(int64(1), active)
}

func (suite *PoolHandlerTestSuite) TestReclaimWithoutSelectionMode() {
	rec, resp := suite.request(http.MethodPost,
		fmt.Sprintf("/v1/pools/%s/reclaim", suite.pool.ID), gin.H{})

	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Require().NotNil(resp.Error)
	suite.Equal("VALIDATION_ERROR", resp.Error.Code)
}

func (suite *PoolHandlerTestSuite) TestUtilizationReportsOverAllocation() {
	for i := 0; i < 3; i++ {
		rec, _ := suite.request(http.MethodPost, suite.allocatePath(suite.pool.ID), gin.H{
			"subject_id":   uuid.New().String(),
			"subject_type": "employee",
		})
		suite.Require().Equal(http.StatusCreated, rec.Code)
	}

	rec, resp := suite.request(http.MethodGet,
		fmt.Sprintf("/v1/pools/%s/utilization", suite.pool.ID), nil)

	suite.Equal(http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]interface{})
	suite.Require().True(ok)
	utilization, ok := data["utilization"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Equal(float64(150), utilization["percent"])
	suite.Equal(true, utilization["over_allocated"])
}

func TestPoolHandlerSuite(t *testing.T) {
	suite.Run(t, new(PoolHandlerTestSuite))
}
