package models

import "time"

// Lead maps to the `leads` table.
type Lead struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:100;not null" json:"name"`
	Email     string    `gorm:"column:email;size:120;uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"column:phone;size:20" json:"phone"`
	Status    string    `gorm:"column:status;size:50;default:new" json:"status"`
	Source    string    `gorm:"column:source;size:50" json:"source"`
	ProjectID *uint     `gorm:"column:project_id;index" json:"project_id"`
	AddressID *uint     `gorm:"column:address_id;index" json:"address_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

// Project maps to the `projects` table.
type Project struct {
	ID          uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"column:name;size:200;not null" json:"name"`
	Description string     `gorm:"column:description;type:text" json:"description"`
	Status      string     `gorm:"column:status;size:50;default:active" json:"status"`
	Location    string     `gorm:"column:location;size:200" json:"location"`
	Budget      int64      `gorm:"column:budget" json:"budget"`
	StartDate   *time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate     *time.Time `gorm:"column:end_date" json:"end_date"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// Address maps to the `addresses` table.
type Address struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Street     string    `gorm:"column:street;size:200" json:"street"`
	City       string    `gorm:"column:city;size:100" json:"city"`
	State      string    `gorm:"column:state;size:100" json:"state"`
	PostalCode string    `gorm:"column:postal_code;size:20" json:"postal_code"`
	Country    string    `gorm:"column:country;size:100" json:"country"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Address) TableName() string {
	return "addresses"
}
