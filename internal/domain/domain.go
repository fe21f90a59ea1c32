package domain

import (
	"github.com/yungbote/coursecatalog-backend/internal/domain/catalog"
	"github.com/yungbote/coursecatalog-backend/internal/domain/jobs"
)

type RequisiteType = catalog.RequisiteType
type RequisiteKey = catalog.RequisiteKey
type Requisite = catalog.Requisite
type Issue = catalog.Issue
type Course = catalog.Course
type CourseSet = catalog.CourseSet
type RequisiteSet = catalog.RequisiteSet
type Program = catalog.Program

type JobRun = jobs.JobRun
type JobRunEvent = jobs.JobRunEvent
type JobEventKind = jobs.JobEventKind

const (
	RequisiteTypePrereq       = catalog.RequisiteTypePrereq
	RequisiteTypeCoreq        = catalog.RequisiteTypeCoreq
	RequisiteTypeAntireq      = catalog.RequisiteTypeAntireq
	RequisiteTypeCourseSet    = catalog.RequisiteTypeCourseSet
	RequisiteTypeRequisiteSet = catalog.RequisiteTypeRequisiteSet
)

var NewRequisiteKey = catalog.NewRequisiteKey

// Models lists every persisted model, in migration order.
func Models() []any {
	return []any{
		&catalog.Requisite{},
		&catalog.Course{},
		&catalog.CourseSet{},
		&catalog.RequisiteSet{},
		&catalog.Program{},
		&jobs.JobRun{},
	}
}
