package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StationType тип посадочного места револьверной головки (A–E)
type StationType string

const (
	StationTypeA StationType = "A"
	StationTypeB StationType = "B"
	StationTypeC StationType = "C"
	StationTypeD StationType = "D"
	StationTypeE StationType = "E"
)

// Valid проверяет, что тип станции входит в A–E
func (t StationType) Valid() bool {
	switch t {
	case StationTypeA, StationTypeB, StationTypeC, StationTypeD, StationTypeE:
		return true
	}
	return false
}

// StationSlot описывает одну станцию шаблона
type StationSlot struct {
	StationID   string      `json:"station_id"`
	Type        StationType `json:"type"`
	HasGuide    bool        `json:"has_guide"`
	IsAutoindex bool        `json:"is_autoindex"` // поворотный держатель, инструмент нельзя переносить
}

// StationSlots упорядоченный набор станций (JSON в БД)
type StationSlots []StationSlot

// Value реализует driver.Valuer для сохранения в БД
func (s StationSlots) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]StationSlot{})
	}
	return json.Marshal([]StationSlot(s))
}

// Scan реализует sql.Scanner для чтения из БД
func (s *StationSlots) Scan(value interface{}) error {
	if value == nil {
		*s = StationSlots{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal StationSlots value")
	}

	return json.Unmarshal(bytes, s)
}

// StationTemplate фиксированная раскладка станций для типа пресса.
// Справочные данные: создаются один раз при инициализации системы.
type StationTemplate struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	MachineType   string       `gorm:"type:varchar(32);uniqueIndex;not null" json:"machine_type"` // "4I", "2I", "45STA"
	AutoindexSize int          `gorm:"default:0" json:"autoindex_count"`
	Slots         StationSlots `gorm:"type:jsonb;not null" json:"slots"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName возвращает имя таблицы
func (StationTemplate) TableName() string {
	return "station_templates"
}

// StationCount общее количество станций шаблона
func (t *StationTemplate) StationCount() int {
	return len(t.Slots)
}

// Slot ищет станцию по ID
func (t *StationTemplate) Slot(stationID string) (StationSlot, bool) {
	for _, slot := range t.Slots {
		if slot.StationID == stationID {
			return slot, true
		}
	}
	return StationSlot{}, false
}

// CountByType считает станции по типам (для API и отчетов)
func (t *StationTemplate) CountByType() map[StationType]int {
	counts := make(map[StationType]int)
	for _, slot := range t.Slots {
		counts[slot.Type]++
	}
	return counts
}
