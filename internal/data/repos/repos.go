package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecatalog-backend/internal/data/repos/catalog"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos/jobs"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

type RequisiteRepo = catalog.RequisiteRepo
type RequisiteFilter = catalog.RequisiteFilter
type CourseRepo = catalog.CourseRepo
type CourseSetRepo = catalog.CourseSetRepo
type RequisiteSetRepo = catalog.RequisiteSetRepo
type ProgramRepo = catalog.ProgramRepo

type JobRunRepo = jobs.JobRunRepo

func NewRequisiteRepo(db *gorm.DB, baseLog *logger.Logger) RequisiteRepo {
	return catalog.NewRequisiteRepo(db, baseLog)
}
func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return catalog.NewCourseRepo(db, baseLog)
}
func NewCourseSetRepo(db *gorm.DB, baseLog *logger.Logger) CourseSetRepo {
	return catalog.NewCourseSetRepo(db, baseLog)
}
func NewRequisiteSetRepo(db *gorm.DB, baseLog *logger.Logger) RequisiteSetRepo {
	return catalog.NewRequisiteSetRepo(db, baseLog)
}
func NewProgramRepo(db *gorm.DB, baseLog *logger.Logger) ProgramRepo {
	return catalog.NewProgramRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
