package catalog

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RequisiteType string

const (
	RequisiteTypePrereq       RequisiteType = "PREREQ"
	RequisiteTypeCoreq        RequisiteType = "COREQ"
	RequisiteTypeAntireq      RequisiteType = "ANTIREQ"
	RequisiteTypeCourseSet    RequisiteType = "COURSE_SET"
	RequisiteTypeRequisiteSet RequisiteType = "REQUISITE_SET"
)

// CourseRequisiteTypes are the types harvested from and propagated to courses.
var CourseRequisiteTypes = []RequisiteType{RequisiteTypePrereq, RequisiteTypeCoreq, RequisiteTypeAntireq}

func (t RequisiteType) Valid() bool {
	switch t {
	case RequisiteTypePrereq, RequisiteTypeCoreq, RequisiteTypeAntireq, RequisiteTypeCourseSet, RequisiteTypeRequisiteSet:
		return true
	default:
		return false
	}
}

// RequisiteKey identifies a registry row. Departments and faculties compare as
// ordered lists: ["MATH","STAT"] and ["STAT","MATH"] are different keys.
type RequisiteKey struct {
	Type        RequisiteType
	Text        string
	Departments []string
	Faculties   []string
}

func NewRequisiteKey(t RequisiteType, text string, departments, faculties []string) RequisiteKey {
	return RequisiteKey{
		Type:        t,
		Text:        text,
		Departments: nonNil(departments),
		Faculties:   nonNil(faculties),
	}
}

func (k RequisiteKey) Equal(o RequisiteKey) bool {
	return k.Type == o.Type &&
		k.Text == o.Text &&
		slices.Equal(k.Departments, o.Departments) &&
		slices.Equal(k.Faculties, o.Faculties)
}

// IndexKey is a composite string usable as a map key. Two keys have the same
// IndexKey iff Equal reports true.
func (k RequisiteKey) IndexKey() string {
	b, _ := json.Marshal([]any{k.Type, k.Text, nonNil(k.Departments), nonNil(k.Faculties)})
	return string(b)
}

// Issue is one validation finding on a canonical json tree.
type Issue struct {
	Message string `json:"message"`
	Value   any    `json:"value"`
}

// Requisite is one registry row. JSON is nil until resolved by a manual edit or
// by auto-selection over JSONChoices. JSONValid/JSONErrors/JSONWarnings are
// derived on read and never stored.
type Requisite struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	RequisiteType RequisiteType               `gorm:"column:requisite_type;not null;uniqueIndex:idx_requisite_key,priority:1" json:"requisite_type"`
	Text          string                      `gorm:"column:text;not null;uniqueIndex:idx_requisite_key,priority:2" json:"text"`
	Departments   datatypes.JSONSlice[string] `gorm:"column:departments;not null;uniqueIndex:idx_requisite_key,priority:3" json:"departments"`
	Faculties     datatypes.JSONSlice[string] `gorm:"column:faculties;not null;uniqueIndex:idx_requisite_key,priority:4" json:"faculties"`
	RawJSON       datatypes.JSON              `gorm:"column:raw_json;type:jsonb" json:"raw_json,omitempty"`
	JSON          datatypes.JSON              `gorm:"column:json;type:jsonb" json:"json"`
	JSONChoices   datatypes.JSON              `gorm:"column:json_choices;type:jsonb" json:"json_choices"`
	CreatedAt     time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"not null;index" json:"updated_at"`

	JSONValid    bool    `gorm:"-" json:"json_valid"`
	JSONErrors   []Issue `gorm:"-" json:"json_errors"`
	JSONWarnings []Issue `gorm:"-" json:"json_warnings"`
}

func (Requisite) TableName() string { return "requisite" }

func (r *Requisite) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps list columns as [] rather than null so the unique key stays comparable.
func (r *Requisite) BeforeSave(tx *gorm.DB) error {
	if r.Departments == nil {
		r.Departments = datatypes.JSONSlice[string]{}
	}
	if r.Faculties == nil {
		r.Faculties = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (r *Requisite) Key() RequisiteKey {
	return NewRequisiteKey(r.RequisiteType, r.Text, r.Departments, r.Faculties)
}

// IsResolved reports whether a canonical json tree has been chosen.
func (r *Requisite) IsResolved() bool {
	if r == nil {
		return false
	}
	s := strings.TrimSpace(string(r.JSON))
	return s != "" && s != "null"
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
