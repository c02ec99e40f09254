package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pressplan/server/internal/models"
	"pressplan/server/internal/planner"
	"pressplan/server/internal/services"
)

// DistributionStore операции над раскладками (services.DistributionService)
type DistributionStore interface {
	Create(ctx context.Context, req services.DistributionRequest) (*models.StoredPlan, error)
	Get(ctx context.Context, id string) (*models.StoredPlan, error)
	List(ctx context.Context) ([]models.StoredPlan, error)
	Delete(ctx context.Context, id string) error
}

// WorkbookBuilder выгрузка в Excel (services.ReportService)
type WorkbookBuilder interface {
	BuildWorkbook(plan *models.StoredPlan) (*excelize.File, string, error)
	BuildMachineSheet(plan *models.StoredPlan, machineID string) (*excelize.File, string, error)
}

type DistributionController struct {
	store   DistributionStore
	reports WorkbookBuilder
	log     *zap.Logger
}

func NewDistributionController(store DistributionStore, reports WorkbookBuilder, log *zap.Logger) *DistributionController {
	return &DistributionController{store: store, reports: reports, log: log}
}

// Register маршруты /distributions
func (dc *DistributionController) Register(rg *gin.RouterGroup) {
	g := rg.Group("/distributions")
	{
		g.POST("", dc.CreateDistribution)
		g.GET("", dc.ListDistributions)
		g.GET("/:id", dc.GetDistribution)
		g.DELETE("/:id", dc.DeleteDistribution)
		g.GET("/:id/report", dc.GetTextReport)
		g.GET("/:id/export", dc.ExportDistribution)
		g.GET("/:id/machines/:machine_id/export", dc.ExportMachine)
	}
}

// CreateDistribution запускает планировщик
// POST /api/v1/distributions
func (dc *DistributionController) CreateDistribution(c *gin.Context) {
	var req services.DistributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	plan, err := dc.store.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// ListDistributions активные раскладки
// GET /api/v1/distributions
func (dc *DistributionController) ListDistributions(c *gin.Context) {
	plans, err := dc.store.List(c.Request.Context())
	if err != nil {
		respondError(c, dc.log, err)
		return
	}

	items := make([]map[string]interface{}, 0, len(plans))
	for i := range plans {
		items = append(items, plans[i].Summary())
	}
	c.JSON(http.StatusOK, gin.H{
		"distributions": items,
		"count":         len(items),
	})
}

// GetDistribution GET /api/v1/distributions/:id
func (dc *DistributionController) GetDistribution(c *gin.Context) {
	plan, err := dc.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DeleteDistribution DELETE /api/v1/distributions/:id
func (dc *DistributionController) DeleteDistribution(c *gin.Context) {
	if err := dc.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, dc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetTextReport текстовый отчет по машинам
// GET /api/v1/distributions/:id/report
func (dc *DistributionController) GetTextReport(c *gin.Context) {
	plan, err := dc.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	c.String(http.StatusOK, planner.RenderText(&plan.Result.PlanResult))
}

// ExportDistribution GET /api/v1/distributions/:id/export
func (dc *DistributionController) ExportDistribution(c *gin.Context) {
	plan, err := dc.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	f, filename, err := dc.reports.BuildWorkbook(plan)
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	dc.writeWorkbook(c, f, filename)
}

// ExportMachine лист наладки одной машины
// GET /api/v1/distributions/:id/machines/:machine_id/export
func (dc *DistributionController) ExportMachine(c *gin.Context) {
	plan, err := dc.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	f, filename, err := dc.reports.BuildMachineSheet(plan, c.Param("machine_id"))
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	dc.writeWorkbook(c, f, filename)
}

func (dc *DistributionController) writeWorkbook(c *gin.Context, f *excelize.File, filename string) {
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		dc.log.Error("❌ write workbook", zap.String("file", filename), zap.Error(err))
	}
}
