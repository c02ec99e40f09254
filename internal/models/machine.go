package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// StringList список строк (JSON в БД)
type StringList []string

// Value реализует driver.Valuer для сохранения в БД
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(l))
}

// Scan реализует sql.Scanner для чтения из БД
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal StringList value")
	}

	return json.Unmarshal(bytes, l)
}

// Contains проверяет, содержится ли значение в списке
func (l StringList) Contains(value string) bool {
	for _, v := range l {
		if v == value {
			return true
		}
	}
	return false
}

// MachineCapability пресс парка с его физическими ограничениями
type MachineCapability struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"` // "T-101"
	Model           string          `gorm:"type:varchar(64)" json:"model"`                      // "EMK6120"
	TemplateID      uint            `gorm:"not null;index" json:"template_id"`
	Template        StationTemplate `gorm:"foreignKey:TemplateID" json:"template"`
	ThicknessMin    float64         `json:"thickness_min"` // мм, 0 = без ограничения
	ThicknessMax    float64         `json:"thickness_max"` // мм, 0 = без ограничения
	SheetMaxX       int             `json:"sheet_max_x"`   // мм, размер стола
	SheetMaxY       int             `json:"sheet_max_y"`   // мм
	DamagedStations StringList      `gorm:"type:jsonb" json:"damaged_stations"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName возвращает имя таблицы
func (MachineCapability) TableName() string {
	return "machines"
}

// IsDamaged проверяет, выведена ли станция из работы
func (m *MachineCapability) IsDamaged(stationID string) bool {
	return m.DamagedStations.Contains(stationID)
}

// UsableSlots станции шаблона без поврежденных, в порядке шаблона
func (m *MachineCapability) UsableSlots() []StationSlot {
	slots := make([]StationSlot, 0, len(m.Template.Slots))
	for _, slot := range m.Template.Slots {
		if m.IsDamaged(slot.StationID) {
			continue
		}
		slots = append(slots, slot)
	}
	return slots
}

// AcceptsThickness проверяет диапазон толщин (0 на любой границе отключает правило)
func (m *MachineCapability) AcceptsThickness(thickness float64) bool {
	if m.ThicknessMin <= 0 || m.ThicknessMax <= 0 {
		return true
	}
	return thickness >= m.ThicknessMin && thickness <= m.ThicknessMax
}

// AcceptsSheet проверяет, что лист помещается на стол
func (m *MachineCapability) AcceptsSheet(x, y int) bool {
	if m.SheetMaxX <= 0 || m.SheetMaxY <= 0 {
		return true
	}
	return x <= m.SheetMaxX && y <= m.SheetMaxY
}
