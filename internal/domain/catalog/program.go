package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Program struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramGroupID string                      `gorm:"column:program_group_id;not null;uniqueIndex" json:"program_group_id"`
	Code           string                      `gorm:"column:code;index" json:"code"`
	Name           string                      `gorm:"column:name" json:"name"`
	Description    *string                     `gorm:"column:description" json:"description,omitempty"`
	Notes          *string                     `gorm:"column:notes" json:"notes,omitempty"`
	AKA            *string                     `gorm:"column:aka" json:"aka,omitempty"`
	Departments    datatypes.JSONSlice[string] `gorm:"column:departments;not null" json:"departments"`
	Faculties      datatypes.JSONSlice[string] `gorm:"column:faculties;not null" json:"faculties"`
	Active         bool                        `gorm:"column:active;not null;index" json:"active"`
	RawJSON        datatypes.JSON              `gorm:"column:raw_json;type:jsonb" json:"raw_json,omitempty"`
	CreatedAt      time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"not null;index" json:"updated_at"`
}

func (Program) TableName() string { return "program" }

func (p *Program) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Program) BeforeSave(tx *gorm.DB) error {
	if p.Departments == nil {
		p.Departments = datatypes.JSONSlice[string]{}
	}
	if p.Faculties == nil {
		p.Faculties = datatypes.JSONSlice[string]{}
	}
	return nil
}
