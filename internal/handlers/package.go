// internal/handlers/package.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/equipdesk/equipdesk-backend/internal/i18n"
	"github.com/equipdesk/equipdesk-backend/internal/services"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

type PackageHandler struct {
	packageService *services.PackageService
	versionService *services.VersionService
}

func NewPackageHandler(packageService *services.PackageService, versionService *services.VersionService) *PackageHandler {
	return &PackageHandler{
		packageService: packageService,
		versionService: versionService,
	}
}

// POST /packages
func (h *PackageHandler) CreatePackage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	pkg, err := h.packageService.CreatePackage(&req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPackageCreated),
		"package": pkg,
	})
}

// GET /packages
func (h *PackageHandler) SearchPackages(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	packages, total, err := h.packageService.SearchPackages(params)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(packages, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /packages/:id
func (h *PackageHandler) GetPackage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid package ID", nil)
		return
	}

	pkg, err := h.packageService.GetPackage(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"package": pkg})
}

// PUT /packages/:id
func (h *PackageHandler) UpdatePackage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid package ID", nil)
		return
	}

	var req services.UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	pkg, err := h.packageService.UpdatePackage(id, &req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPackageUpdated),
		"package": pkg,
	})
}

// POST /packages/:id/save
func (h *PackageHandler) SavePackage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid package ID", nil)
		return
	}

	version, err := h.packageService.SavePackage(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPackageVersioned),
		"version": version,
	})
}

// POST /packages/:id/archive
func (h *PackageHandler) ArchivePackage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid package ID", nil)
		return
	}

	pkg, err := h.packageService.ArchivePackage(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"package": pkg})
}

// GET /packages/:id/versions
func (h *PackageHandler) ListVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid package ID", nil)
		return
	}

	versions, err := h.versionService.ListVersions(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"versions": versions})
}

// GET /packages/:id/versions/latest
func (h *PackageHandler) GetLatestVersion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid package ID", nil)
		return
	}

	version, err := h.versionService.LatestVersion(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"version": version})
}

// GET /packages/:id/versions/:number
func (h *PackageHandler) GetVersionByNumber(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid package ID", nil)
		return
	}

	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		utils.BadRequestResponse(c, "Invalid version number", nil)
		return
	}

	versions, err := h.versionService.ListVersions(id)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	for _, v := range versions {
		if v.VersionNumber == number {
			utils.SuccessResponse(c, gin.H{"version": v})
			return
		}
	}

	utils.NotFoundResponse(c, "package_version")
}
