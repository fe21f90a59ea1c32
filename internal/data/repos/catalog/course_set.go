package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

type CourseSetRepo interface {
	Upsert(dbc dbctx.Context, set *types.CourseSet) error
	GetByGroupID(dbc dbctx.Context, groupID string) (*types.CourseSet, error)
	ListAll(dbc dbctx.Context) ([]*types.CourseSet, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type courseSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseSetRepo(db *gorm.DB, baseLog *logger.Logger) CourseSetRepo {
	return &courseSetRepo{
		db:  db,
		log: baseLog.With("repo", "CourseSetRepo"),
	}
}

func (r *courseSetRepo) Upsert(dbc dbctx.Context, set *types.CourseSet) error {
	if set == nil {
		return nil
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_set_group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "raw_json", "updated_at"}),
		}).
		Create(set).Error
}

func (r *courseSetRepo) GetByGroupID(dbc dbctx.Context, groupID string) (*types.CourseSet, error) {
	if groupID == "" {
		return nil, nil
	}
	var out types.CourseSet
	if err := dbc.DB(r.db).
		Where("course_set_group_id = ?", groupID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *courseSetRepo) ListAll(dbc dbctx.Context) ([]*types.CourseSet, error) {
	var out []*types.CourseSet
	if err := dbc.DB(r.db).
		Order("course_set_group_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseSetRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return dbc.DB(r.db).
		Model(&types.CourseSet{}).
		Where("id = ?", id).
		Updates(updates).Error
}

type RequisiteSetRepo interface {
	Upsert(dbc dbctx.Context, set *types.RequisiteSet) error
	ListAll(dbc dbctx.Context) ([]*types.RequisiteSet, error)
}

type requisiteSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequisiteSetRepo(db *gorm.DB, baseLog *logger.Logger) RequisiteSetRepo {
	return &requisiteSetRepo{
		db:  db,
		log: baseLog.With("repo", "RequisiteSetRepo"),
	}
}

func (r *requisiteSetRepo) Upsert(dbc dbctx.Context, set *types.RequisiteSet) error {
	if set == nil {
		return nil
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "requisite_set_group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "raw_json", "updated_at"}),
		}).
		Create(set).Error
}

func (r *requisiteSetRepo) ListAll(dbc dbctx.Context) ([]*types.RequisiteSet, error) {
	var out []*types.RequisiteSet
	if err := dbc.DB(r.db).
		Order("requisite_set_group_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
