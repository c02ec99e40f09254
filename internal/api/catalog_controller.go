package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pressplan/server/internal/models"
	"pressplan/server/internal/services"
)

// TemplateStore шаблоны револьверных голов
type TemplateStore interface {
	List(ctx context.Context) ([]models.StationTemplate, error)
	GetByMachineType(ctx context.Context, machineType string) (*models.StationTemplate, error)
}

// PackageStore изделия
type PackageStore interface {
	Create(ctx context.Context, pkg *models.Package) error
	Get(ctx context.Context, id uint) (*models.Package, error)
}

// CatalogController справочники: шаблоны станций и изделия
type CatalogController struct {
	templates TemplateStore
	packages  PackageStore
	log       *zap.Logger
}

func NewCatalogController(templates TemplateStore, packages PackageStore, log *zap.Logger) *CatalogController {
	return &CatalogController{templates: templates, packages: packages, log: log}
}

func (cc *CatalogController) Register(rg *gin.RouterGroup) {
	rg.GET("/station-templates", cc.GetTemplates)
	rg.GET("/station-templates/:machine_type", cc.GetTemplate)
	rg.POST("/packages", cc.CreatePackage)
	rg.GET("/packages/:id", cc.GetPackage)
}

// GetTemplates GET /api/v1/station-templates
func (cc *CatalogController) GetTemplates(c *gin.Context) {
	templates, err := cc.templates.List(c.Request.Context())
	if err != nil {
		respondError(c, cc.log, err)
		return
	}

	items := make([]gin.H, 0, len(templates))
	for i := range templates {
		t := &templates[i]
		items = append(items, gin.H{
			"id":              t.ID,
			"machine_type":    t.MachineType,
			"station_count":   t.StationCount(),
			"autoindex_count": t.AutoindexSize,
			"count_by_type":   t.CountByType(),
			"slots":           t.Slots,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"templates": items,
		"count":     len(items),
	})
}

// GetTemplate GET /api/v1/station-templates/:machine_type
func (cc *CatalogController) GetTemplate(c *gin.Context) {
	tmpl, err := cc.templates.GetByMachineType(c.Request.Context(), c.Param("machine_type"))
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// CreatePackage изделие с разобранными setup-данными деталей
// POST /api/v1/packages
func (cc *CatalogController) CreatePackage(c *gin.Context) {
	var pkg models.Package
	if err := c.ShouldBindJSON(&pkg); err != nil {
		badRequest(c, err)
		return
	}
	pkg.ID = 0
	for i := range pkg.Parts {
		pkg.Parts[i].ID = 0
		pkg.Parts[i].PackageID = 0
	}

	if err := cc.packages.Create(c.Request.Context(), &pkg); err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

// GetPackage GET /api/v1/packages/:id
func (cc *CatalogController) GetPackage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, cc.log, fmt.Errorf("%w: package id must be a number", services.ErrInvalidRequest))
		return
	}
	pkg, err := cc.packages.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}
