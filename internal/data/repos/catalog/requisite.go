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

const insertBatchSize = 500

var requisiteKeyColumns = []clause.Column{
	{Name: "requisite_type"},
	{Name: "text"},
	{Name: "departments"},
	{Name: "faculties"},
}

type RequisiteFilter struct {
	Types      []types.RequisiteType
	Unresolved bool
	Limit      int
	Offset     int
}

type RequisiteRepo interface {
	Create(dbc dbctx.Context, rows []*types.Requisite) ([]*types.Requisite, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Requisite, error)
	GetByKey(dbc dbctx.Context, key types.RequisiteKey) (*types.Requisite, error)
	List(dbc dbctx.Context, filter RequisiteFilter) ([]*types.Requisite, error)
	ListByTypes(dbc dbctx.Context, reqTypes []types.RequisiteType) ([]*types.Requisite, error)
	// InsertMissing inserts rows whose key is absent and leaves existing rows untouched.
	InsertMissing(dbc dbctx.Context, rows []*types.Requisite) (int64, error)
	// UpsertRawJSON inserts rows or refreshes raw_json on key conflict. json is never touched.
	UpsertRawJSON(dbc dbctx.Context, rows []*types.Requisite) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (bool, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type requisiteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequisiteRepo(db *gorm.DB, baseLog *logger.Logger) RequisiteRepo {
	return &requisiteRepo{
		db:  db,
		log: baseLog.With("repo", "RequisiteRepo"),
	}
}

func (r *requisiteRepo) Create(dbc dbctx.Context, rows []*types.Requisite) ([]*types.Requisite, error) {
	if len(rows) == 0 {
		return []*types.Requisite{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *requisiteRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Requisite, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Requisite
	err := dbc.DB(r.db).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

// GetByKey narrows by type and text in SQL, then compares the ordered lists in memory.
func (r *requisiteRepo) GetByKey(dbc dbctx.Context, key types.RequisiteKey) (*types.Requisite, error) {
	var candidates []*types.Requisite
	err := dbc.DB(r.db).
		Where("requisite_type = ? AND text = ?", key.Type, key.Text).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	for _, row := range candidates {
		if row.Key().Equal(key) {
			return row, nil
		}
	}
	return nil, nil
}

func (r *requisiteRepo) List(dbc dbctx.Context, filter RequisiteFilter) ([]*types.Requisite, error) {
	q := dbc.DB(r.db).Model(&types.Requisite{})
	if len(filter.Types) > 0 {
		q = q.Where("requisite_type IN ?", filter.Types)
	}
	if filter.Unresolved {
		q = q.Where(`"json" IS NULL`)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	var out []*types.Requisite
	if err := q.Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requisiteRepo) ListByTypes(dbc dbctx.Context, reqTypes []types.RequisiteType) ([]*types.Requisite, error) {
	var out []*types.Requisite
	if len(reqTypes) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("requisite_type IN ?", reqTypes).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requisiteRepo) InsertMissing(dbc dbctx.Context, rows []*types.Requisite) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   requisiteKeyColumns,
			DoNothing: true,
		}).
		CreateInBatches(&rows, insertBatchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *requisiteRepo) UpsertRawJSON(dbc dbctx.Context, rows []*types.Requisite) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   requisiteKeyColumns,
			DoUpdates: clause.AssignmentColumns([]string{"raw_json", "updated_at"}),
		}).
		CreateInBatches(&rows, insertBatchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *requisiteRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	res := dbc.DB(r.db).
		Model(&types.Requisite{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *requisiteRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	res := dbc.DB(r.db).
		Where("id = ?", id).
		Delete(&types.Requisite{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
