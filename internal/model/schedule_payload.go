package model

import "sort"

// Pay 单条排班的薪资相关金额，均为非负数
type Pay struct {
	DailyIncome       float64 `gorm:"type:decimal(12,2);not null;default:0" json:"daily_income"`
	PayoutRate        float64 `gorm:"type:decimal(12,2);not null;default:0" json:"payout_rate"`
	HiringRate        float64 `gorm:"type:decimal(12,2);not null;default:0" json:"hiring_rate"`
	PositionAllowance float64 `gorm:"type:decimal(12,2);not null;default:0" json:"position_allowance"`
	DiligenceBonus    float64 `gorm:"type:decimal(12,2);not null;default:0" json:"diligence_bonus"`
	SevenDayBonus     float64 `gorm:"type:decimal(12,2);not null;default:0" json:"seven_day_bonus"`
	PointBonus        float64 `gorm:"type:decimal(12,2);not null;default:0" json:"point_bonus"`
	OtherAllowance    float64 `gorm:"type:decimal(12,2);not null;default:0" json:"other_allowance"`
}

// TotalIncome 日薪 + 各项津贴奖金（payout_rate / hiring_rate 为对外费率，不计入）
func (p Pay) TotalIncome() float64 {
	return p.DailyIncome + p.PositionAllowance + p.DiligenceBonus +
		p.SevenDayBonus + p.PointBonus + p.OtherAllowance
}

// Fields 按字段名返回金额，供校验与汇总复用
func (p Pay) Fields() map[string]float64 {
	return map[string]float64{
		"daily_income":       p.DailyIncome,
		"payout_rate":        p.PayoutRate,
		"hiring_rate":        p.HiringRate,
		"position_allowance": p.PositionAllowance,
		"diligence_bonus":    p.DiligenceBonus,
		"seven_day_bonus":    p.SevenDayBonus,
		"point_bonus":        p.PointBonus,
		"other_allowance":    p.OtherAllowance,
	}
}

// Assignment 班次中的一名人员
type Assignment struct {
	WorkerID   uint   `json:"worker_id"`
	WorkerCode string `json:"worker_code,omitempty"`
	WorkerName string `json:"worker_name,omitempty"`
	Position   string `json:"position,omitempty"`
	Pay
}

// ShiftPayload 班次代码 → 有序人员列表
type ShiftPayload map[string][]Assignment

// Counts 计算每个班次的人数与总人数
func (p ShiftPayload) Counts() (map[string]int, int) {
	counts := make(map[string]int, len(p))
	total := 0
	for code, list := range p {
		counts[code] = len(list)
		total += len(list)
	}
	return counts, total
}

// Codes 返回排序后的班次代码，保证展开顺序稳定
func (p ShiftPayload) Codes() []string {
	codes := make([]string, 0, len(p))
	for code := range p {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
