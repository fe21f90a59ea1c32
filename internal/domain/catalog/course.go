package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course is a dependent entity: it owns the requisite text it was imported with
// and a denormalized copy of the canonical json for each requisite kind.
type Course struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	CourseGroupID string                      `gorm:"column:course_group_id;not null;uniqueIndex" json:"course_group_id"`
	Code          string                      `gorm:"column:code;index" json:"code"`
	SubjectCode   string                      `gorm:"column:subject_code;index" json:"subject_code"`
	Name          string                      `gorm:"column:name" json:"name"`
	Description   *string                     `gorm:"column:description" json:"description,omitempty"`
	PrereqText    *string                     `gorm:"column:prereq" json:"prereq,omitempty"`
	CoreqText     *string                     `gorm:"column:coreq" json:"coreq,omitempty"`
	AntireqText   *string                     `gorm:"column:antireq" json:"antireq,omitempty"`
	Notes         *string                     `gorm:"column:notes" json:"notes,omitempty"`
	AKA           *string                     `gorm:"column:aka" json:"aka,omitempty"`
	NoGPA         bool                        `gorm:"column:no_gpa;not null;default:false" json:"no_gpa"`
	Departments   datatypes.JSONSlice[string] `gorm:"column:departments;not null" json:"departments"`
	Faculties     datatypes.JSONSlice[string] `gorm:"column:faculties;not null" json:"faculties"`
	Active        bool                        `gorm:"column:active;not null;index" json:"active"`
	PrereqJSON    datatypes.JSON              `gorm:"column:prereq_json;type:jsonb" json:"prereq_json,omitempty"`
	CoreqJSON     datatypes.JSON              `gorm:"column:coreq_json;type:jsonb" json:"coreq_json,omitempty"`
	AntireqJSON   datatypes.JSON              `gorm:"column:antireq_json;type:jsonb" json:"antireq_json,omitempty"`
	RawJSON       datatypes.JSON              `gorm:"column:raw_json;type:jsonb" json:"raw_json,omitempty"`
	CreatedAt     time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"not null;index" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Course) BeforeSave(tx *gorm.DB) error {
	if c.Departments == nil {
		c.Departments = datatypes.JSONSlice[string]{}
	}
	if c.Faculties == nil {
		c.Faculties = datatypes.JSONSlice[string]{}
	}
	return nil
}

// RequisiteText returns the free text stored for t, or "" when absent.
func (c *Course) RequisiteText(t RequisiteType) string {
	var p *string
	switch t {
	case RequisiteTypePrereq:
		p = c.PrereqText
	case RequisiteTypeCoreq:
		p = c.CoreqText
	case RequisiteTypeAntireq:
		p = c.AntireqText
	}
	if p == nil {
		return ""
	}
	return *p
}

// RequisiteJSONColumn names the denormalized json column for t.
func RequisiteJSONColumn(t RequisiteType) string {
	switch t {
	case RequisiteTypePrereq:
		return "prereq_json"
	case RequisiteTypeCoreq:
		return "coreq_json"
	case RequisiteTypeAntireq:
		return "antireq_json"
	default:
		return ""
	}
}
