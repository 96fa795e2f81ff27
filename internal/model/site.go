package model

// Site 服务站点 — 对应 sites
type Site struct {
	SiteID       uint   `gorm:"primaryKey;autoIncrement"              json:"site_id"`
	SiteCode     string `gorm:"type:varchar(50);not null;uniqueIndex" json:"site_code"`
	Name         string `gorm:"type:varchar(200);not null"            json:"name"`
	CustomerCode string `gorm:"type:varchar(50)"                      json:"customer_code,omitempty"`
	Address      string `gorm:"type:varchar(500)"                     json:"address,omitempty"`
	IsActive     bool   `gorm:"not null"                              json:"is_active"`
	SoftDeleteModel
}

func (Site) TableName() string { return "sites" }
