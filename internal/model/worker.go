package model

import "strings"

// Worker 保安人员 — 对应 workers
type Worker struct {
	WorkerID      uint   `gorm:"primaryKey;autoIncrement"              json:"worker_id"`
	WorkerCode    string `gorm:"type:varchar(50);not null;uniqueIndex" json:"worker_code"`
	FirstName     string `gorm:"type:varchar(100);not null"            json:"first_name"`
	LastName      string `gorm:"type:varchar(100)"                     json:"last_name"`
	Phone         string `gorm:"type:varchar(30)"                      json:"phone,omitempty"`
	BankCode      string `gorm:"type:varchar(20)"                      json:"bank_code,omitempty"`
	BankAccountNo string `gorm:"type:varchar(50)"                      json:"bank_account_no,omitempty"`
	IsActive      bool   `gorm:"not null"                              json:"is_active"`
	SoftDeleteModel
}

func (Worker) TableName() string { return "workers" }

// FullName 名 + 姓
func (w *Worker) FullName() string {
	return strings.TrimSpace(w.FirstName + " " + w.LastName)
}
