package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pressplan/server/internal/models"
	"pressplan/server/internal/services"
)

// MachineStore парк прессов (services.MachineService)
type MachineStore interface {
	Create(ctx context.Context, in services.MachineInput) (*models.MachineCapability, error)
	List(ctx context.Context, activeOnly bool) ([]models.MachineCapability, error)
	Get(ctx context.Context, id string) (*models.MachineCapability, error)
	Update(ctx context.Context, id string, in services.MachineInput) (*models.MachineCapability, error)
	Deactivate(ctx context.Context, id string) error
}

type MachineController struct {
	store MachineStore
	log   *zap.Logger
}

func NewMachineController(store MachineStore, log *zap.Logger) *MachineController {
	return &MachineController{store: store, log: log}
}

func (mc *MachineController) Register(rg *gin.RouterGroup) {
	g := rg.Group("/machines")
	{
		g.GET("", mc.GetMachines)
		g.POST("", mc.CreateMachine)
		g.GET("/:id", mc.GetMachine)
		g.PUT("/:id", mc.UpdateMachine)
		g.DELETE("/:id", mc.DeactivateMachine)
	}
}

// GetMachines список машин
// GET /api/v1/machines?active=true
func (mc *MachineController) GetMachines(c *gin.Context) {
	machines, err := mc.store.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, mc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"machines": machines,
		"count":    len(machines),
	})
}

// CreateMachine POST /api/v1/machines
func (mc *MachineController) CreateMachine(c *gin.Context) {
	var in services.MachineInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	machine, err := mc.store.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, mc.log, err)
		return
	}
	c.JSON(http.StatusCreated, machine)
}

// GetMachine GET /api/v1/machines/:id
func (mc *MachineController) GetMachine(c *gin.Context) {
	machine, err := mc.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, mc.log, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

// UpdateMachine меняет параметры и поврежденные станции
// PUT /api/v1/machines/:id
func (mc *MachineController) UpdateMachine(c *gin.Context) {
	var in services.MachineInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	machine, err := mc.store.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, mc.log, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

// DeactivateMachine DELETE /api/v1/machines/:id
func (mc *MachineController) DeactivateMachine(c *gin.Context) {
	if err := mc.store.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, mc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": true})
}
