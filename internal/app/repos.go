package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecatalog-backend/internal/data/repos"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

type Repos struct {
	Requisite    repos.RequisiteRepo
	Course       repos.CourseRepo
	CourseSet    repos.CourseSetRepo
	RequisiteSet repos.RequisiteSetRepo
	Program      repos.ProgramRepo
	JobRun       repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Requisite:    repos.NewRequisiteRepo(db, log),
		Course:       repos.NewCourseRepo(db, log),
		CourseSet:    repos.NewCourseSetRepo(db, log),
		RequisiteSet: repos.NewRequisiteSetRepo(db, log),
		Program:      repos.NewProgramRepo(db, log),
		JobRun:       repos.NewJobRunRepo(db, log),
	}
}
