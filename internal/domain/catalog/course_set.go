package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CourseSet struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseSetGroupID string         `gorm:"column:course_set_group_id;not null;uniqueIndex" json:"course_set_group_id"`
	Name             string         `gorm:"column:name;not null;index" json:"name"`
	Description      *string        `gorm:"column:description" json:"description,omitempty"`
	RawJSON          datatypes.JSON `gorm:"column:raw_json;type:jsonb" json:"raw_json,omitempty"`
	JSON             datatypes.JSON `gorm:"column:json;type:jsonb" json:"json,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;index" json:"updated_at"`
}

func (CourseSet) TableName() string { return "course_set" }

func (c *CourseSet) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type RequisiteSet struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RequisiteSetGroupID string         `gorm:"column:requisite_set_group_id;not null;uniqueIndex" json:"requisite_set_group_id"`
	Name                string         `gorm:"column:name;not null;index" json:"name"`
	Description         *string        `gorm:"column:description" json:"description,omitempty"`
	RawJSON             datatypes.JSON `gorm:"column:raw_json;type:jsonb" json:"raw_json,omitempty"`
	CreatedAt           time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;index" json:"updated_at"`
}

func (RequisiteSet) TableName() string { return "requisite_set" }

func (r *RequisiteSet) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
