package requisite_choices

import (
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

const JobType = "requisite_choices"

type Pipeline struct {
	log *logger.Logger
	uc  requisites.Usecases
}

func New(baseLog *logger.Logger, uc requisites.Usecases) *Pipeline {
	log := baseLog.With("job", JobType)
	return &Pipeline{
		log: log,
		uc:  uc.WithLog(log),
	}
}

func (p *Pipeline) Type() string { return JobType }
