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

// courseImportColumns are refreshed on re-import. The *_json columns belong to propagation.
var courseImportColumns = []string{
	"code",
	"subject_code",
	"name",
	"description",
	"prereq",
	"coreq",
	"antireq",
	"notes",
	"aka",
	"no_gpa",
	"departments",
	"faculties",
	"active",
	"raw_json",
	"updated_at",
}

type CourseRepo interface {
	Upsert(dbc dbctx.Context, course *types.Course) error
	GetByGroupID(dbc dbctx.Context, groupID string) (*types.Course, error)
	ListActive(dbc dbctx.Context) ([]*types.Course, error)
	// ListActiveWithRequisites returns active courses with at least one non-blank requisite text.
	ListActiveWithRequisites(dbc dbctx.Context) ([]*types.Course, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{
		db:  db,
		log: baseLog.With("repo", "CourseRepo"),
	}
}

func (r *courseRepo) Upsert(dbc dbctx.Context, course *types.Course) error {
	if course == nil {
		return nil
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_group_id"}},
			DoUpdates: clause.AssignmentColumns(courseImportColumns),
		}).
		Create(course).Error
}

func (r *courseRepo) GetByGroupID(dbc dbctx.Context, groupID string) (*types.Course, error) {
	if groupID == "" {
		return nil, nil
	}
	var out types.Course
	if err := dbc.DB(r.db).
		Where("course_group_id = ?", groupID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *courseRepo) ListActive(dbc dbctx.Context) ([]*types.Course, error) {
	var out []*types.Course
	if err := dbc.DB(r.db).
		Where("active = ?", true).
		Order("course_group_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) ListActiveWithRequisites(dbc dbctx.Context) ([]*types.Course, error) {
	var out []*types.Course
	if err := dbc.DB(r.db).
		Where("active = ?", true).
		Where(`(prereq IS NOT NULL AND prereq <> '')
			OR (coreq IS NOT NULL AND coreq <> '')
			OR (antireq IS NOT NULL AND antireq <> '')`).
		Order("course_group_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Course{}).
		Where("id = ?", id).
		Updates(updates).Error
}
