package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

type ProgramRepo interface {
	Upsert(dbc dbctx.Context, program *types.Program) error
	GetByGroupID(dbc dbctx.Context, groupID string) (*types.Program, error)
}

type programRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramRepo(db *gorm.DB, baseLog *logger.Logger) ProgramRepo {
	return &programRepo{
		db:  db,
		log: baseLog.With("repo", "ProgramRepo"),
	}
}

func (r *programRepo) Upsert(dbc dbctx.Context, program *types.Program) error {
	if program == nil {
		return nil
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "program_group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"code", "name", "description", "notes", "aka",
				"departments", "faculties", "active", "raw_json", "updated_at",
			}),
		}).
		Create(program).Error
}

func (r *programRepo) GetByGroupID(dbc dbctx.Context, groupID string) (*types.Program, error) {
	if groupID == "" {
		return nil, nil
	}
	var out types.Program
	if err := dbc.DB(r.db).
		Where("program_group_id = ?", groupID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}
