// internal/handlers/pool.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/equipdesk/equipdesk-backend/internal/i18n"
	"github.com/equipdesk/equipdesk-backend/internal/services"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

type PoolHandler struct {
	poolService *services.PoolService
}

func NewPoolHandler(poolService *services.PoolService) *PoolHandler {
	return &PoolHandler{
		poolService: poolService,
	}
}

// POST /pools
func (h *PoolHandler) CreatePool(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	pool, err := h.poolService.CreatePool(&req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPoolCreated),
		"pool":    pool,
	})
}

// GET /pools
func (h *PoolHandler) ListPools(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	pools, total, err := h.poolService.ListPools(params)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(pools, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /pools/:id
func (h *PoolHandler) GetPool(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid pool ID", nil)
		return
	}

	pool, err := h.poolService.GetPool(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"pool": pool})
}

// POST /pools/:id/allocate
func (h *PoolHandler) AllocateSeat(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid pool ID", nil)
		return
	}

	var req services.AllocateSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	assignment, err := h.poolService.Allocate(id, &req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeySeatAllocated),
		"assignment": assignment,
	})
}

// POST /pools/:id/reclaim
func (h *PoolHandler) ReclaimSeats(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid pool ID", nil)
		return
	}

	var req services.ReclaimSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	reclaimed, err := h.poolService.Reclaim(id, &req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeySeatsReclaimed),
		"reclaimed": reclaimed,
	})
}

// GET /pools/:id/utilization
func (h *PoolHandler) GetUtilization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid pool ID", nil)
		return
	}

	utilization, err := h.poolService.Utilization(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"utilization": utilization})
}

// GET /pools/statistics
func (h *PoolHandler) GetStatistics(c *gin.Context) {
	stats, err := h.poolService.GetPoolStatistics()
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}
