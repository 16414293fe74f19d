// internal/handlers/catalog.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/equipdesk/equipdesk-backend/internal/i18n"
	"github.com/equipdesk/equipdesk-backend/internal/services"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
	storageService *services.StorageService
}

func NewCatalogHandler(catalogService *services.CatalogService, storageService *services.StorageService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		storageService: storageService,
	}
}

// POST /catalog/hardware
func (h *CatalogHandler) CreateHardware(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateHardwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	hardware, err := h.catalogService.CreateHardware(&req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyHardwareCreated),
		"hardware": hardware,
	})
}

// GET /catalog/hardware
func (h *CatalogHandler) SearchHardware(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	items, total, err := h.catalogService.SearchHardware(params)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(items, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /catalog/hardware/:id
func (h *CatalogHandler) GetHardware(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hardware ID", nil)
		return
	}

	hardware, err := h.catalogService.GetHardware(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"hardware": hardware})
}

// POST /catalog/hardware/:id/retire
func (h *CatalogHandler) RetireHardware(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hardware ID", nil)
		return
	}

	hardware, err := h.catalogService.RetireHardware(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyHardwareRetired),
		"hardware": hardware,
	})
}

// POST /catalog/hardware/:id/supersede
func (h *CatalogHandler) SupersedeHardware(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hardware ID", nil)
		return
	}

	var req services.SupersedeHardwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	updatedPackages, err := h.catalogService.SupersedeHardware(id, &req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":          i18n.T(lang, i18n.KeyHardwareSuperseded),
		"updated_packages": updatedPackages,
	})
}

// POST /catalog/hardware/:id/attachments
func (h *CatalogHandler) UploadHardwareAttachment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hardware ID", nil)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	options := h.storageService.GetDefaultUploadOptions("catalog_attachments")
	result, err := h.storageService.UploadFile(file, header, options)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	hardware, err := h.catalogService.AddHardwareAttachment(id, result.URL)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyFileUploadSuccess),
		"upload":   result,
		"hardware": hardware,
	})
}

// POST /catalog/software
func (h *CatalogHandler) CreateSoftware(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateSoftwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	software, err := h.catalogService.CreateSoftware(&req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeySoftwareCreated),
		"software": software,
	})
}

// GET /catalog/software
func (h *CatalogHandler) SearchSoftware(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	items, total, err := h.catalogService.SearchSoftware(params)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(items, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /catalog/software/:id
func (h *CatalogHandler) GetSoftware(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid software ID", nil)
		return
	}

	software, err := h.catalogService.GetSoftware(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"software": software})
}

// POST /catalog/software/:id/retire
func (h *CatalogHandler) RetireSoftware(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid software ID", nil)
		return
	}

	software, err := h.catalogService.RetireSoftware(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeySoftwareRetired),
		"software": software,
	})
}
