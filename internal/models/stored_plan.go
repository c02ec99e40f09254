package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// PlanResultJSON PlanResult в JSONB колонке
type PlanResultJSON struct {
	PlanResult
}

// Value реализует driver.Valuer для сохранения в БД
func (r PlanResultJSON) Value() (driver.Value, error) {
	return json.Marshal(r.PlanResult)
}

// Scan реализует sql.Scanner для чтения из БД
func (r *PlanResultJSON) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal PlanResult value")
	}

	return json.Unmarshal(bytes, &r.PlanResult)
}

// StoredPlan сохраненный результат распределения (живет ограниченное время)
type StoredPlan struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	PackageID   uint           `gorm:"index" json:"package_id"`
	PackageName string         `gorm:"type:varchar(255)" json:"package_name"`
	Demand      int            `json:"demand"`
	TimeBudget  float64        `json:"time_budget_hours"`
	MachineIDs  StringList     `gorm:"type:jsonb" json:"machine_ids"`
	Result      PlanResultJSON `gorm:"type:jsonb;not null" json:"result"`
	Feasible    bool           `gorm:"default:false;index" json:"feasible"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt   time.Time      `gorm:"index" json:"expires_at"`
}

// TableName возвращает имя таблицы
func (StoredPlan) TableName() string {
	return "distributions"
}

// Expired проверяет истечение срока хранения
func (p *StoredPlan) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// Summary короткое представление для списков
func (p *StoredPlan) Summary() map[string]interface{} {
	machineIDs := []string(p.MachineIDs)
	if machineIDs == nil {
		machineIDs = []string{}
	}
	return map[string]interface{}{
		"id":                p.ID,
		"package_id":        p.PackageID,
		"package_name":      p.PackageName,
		"demand":            p.Demand,
		"time_budget_hours": p.TimeBudget,
		"feasible":          p.Feasible,
		"machines_used":     p.Result.Stats.MachinesUsed,
		"machine_ids":       machineIDs,
		"created_at":        p.CreatedAt.Format(time.RFC3339),
		"expires_at":        p.ExpiresAt.Format(time.RFC3339),
	}
}
