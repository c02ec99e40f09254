package models

import "strings"

// ToolUse одно использование инструмента в программе детали
type ToolUse struct {
	ToolNumber      string  `json:"tool_number"`
	OriginStationID string  `json:"station"` // станция из исходного setup-файла
	Angle           float64 `json:"angle"`
}

// IsRound круглый инструмент (номер начинается с "1")
func (t ToolUse) IsRound() bool {
	return IsRoundTool(t.ToolNumber)
}

// IsRoundTool проверяет номер инструмента по соглашению о ведущей цифре
func IsRoundTool(toolNumber string) bool {
	return strings.HasPrefix(strings.TrimSpace(toolNumber), "1")
}

// PartRequirement потребность в одной детали на запрос планирования
type PartRequirement struct {
	ID         string    `json:"part_id"`
	PartNumber string    `json:"part_number"`
	Quantity   int       `json:"quantity"` // уже умножено на спрос
	UPH        float64   `json:"uph"`      // штук в час
	Thickness  float64   `json:"thickness"`
	SheetX     int       `json:"sheet_x"`
	SheetY     int       `json:"sheet_y"`
	Tools      []ToolUse `json:"tools"`
}

// Label имя детали для сообщений (номер, если есть)
func (p *PartRequirement) Label() string {
	if p.PartNumber != "" {
		return p.PartNumber
	}
	return p.ID
}

// Hours часы производства = количество / UPH
func (p *PartRequirement) Hours() float64 {
	if p.UPH <= 0 {
		return 0
	}
	return float64(p.Quantity) / p.UPH
}

// ToolNumbers уникальные номера инструментов в порядке первого появления
func (p *PartRequirement) ToolNumbers() []string {
	seen := make(map[string]struct{}, len(p.Tools))
	numbers := make([]string, 0, len(p.Tools))
	for _, t := range p.Tools {
		if _, ok := seen[t.ToolNumber]; ok {
			continue
		}
		seen[t.ToolNumber] = struct{}{}
		numbers = append(numbers, t.ToolNumber)
	}
	return numbers
}

// SameSheet совпадение размеров листа
func (p *PartRequirement) SameSheet(other *PartRequirement) bool {
	return p.SheetX == other.SheetX && p.SheetY == other.SheetY
}
