package steps

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/datatypes"

	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/normalization"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/pointers"
)

// record is a vendor record after key normalization.
type record map[string]any

func newRecord(raw map[string]any) record {
	return record(normalization.SnakeKeysMap(raw))
}

// str returns the first non-blank string value among keys.
func (r record) str(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func (r record) strPtr(keys ...string) *string {
	return pointers.NonBlank(r.str(keys...))
}

func (r record) codes(key string) []string {
	items, _ := r[key].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return normalization.CodeList(out)
}

func (r record) boolOr(key string, def bool) bool {
	if b, ok := r[key].(bool); ok {
		return b
	}
	return def
}

func rawJSON(raw map[string]any) datatypes.JSON {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// naturalKey is the record identity used for logs and batch failure keys.
func naturalKey(raw map[string]any, keys ...string) string {
	r := newRecord(raw)
	if s := r.str(keys...); s != "" {
		return s
	}
	return "<missing>"
}

func courseFromRecord(raw map[string]any) (*types.Course, error) {
	r := newRecord(raw)
	groupID := r.str("course_group_id", "id")
	if groupID == "" {
		return nil, fmt.Errorf("course record without course_group_id")
	}
	desc := normalization.ParseDescription(r.strPtr("description"))
	return &types.Course{
		CourseGroupID: groupID,
		Code:          r.str("code"),
		SubjectCode:   r.str("subject_code"),
		Name:          r.str("name", "long_name"),
		Description:   desc.Description,
		PrereqText:    desc.Prereq,
		CoreqText:     desc.Coreq,
		AntireqText:   desc.Antireq,
		Notes:         desc.Notes,
		AKA:           desc.AKA,
		NoGPA:         desc.NoGPA,
		Departments:   datatypes.JSONSlice[string](r.codes("departments")),
		Faculties:     datatypes.JSONSlice[string](r.codes("faculties")),
		Active:        r.boolOr("active", true),
		RawJSON:       rawJSON(raw),
	}, nil
}

func courseSetFromRecord(raw map[string]any) (*types.CourseSet, error) {
	r := newRecord(raw)
	groupID := r.str("course_set_group_id", "id")
	if groupID == "" {
		return nil, fmt.Errorf("course set record without course_set_group_id")
	}
	name := r.str("name")
	if name == "" {
		return nil, fmt.Errorf("course set %s without name", groupID)
	}
	return &types.CourseSet{
		CourseSetGroupID: groupID,
		Name:             name,
		Description:      r.strPtr("description"),
		RawJSON:          rawJSON(raw),
	}, nil
}

func requisiteSetFromRecord(raw map[string]any) (*types.RequisiteSet, error) {
	r := newRecord(raw)
	groupID := r.str("requisite_set_group_id", "id")
	if groupID == "" {
		return nil, fmt.Errorf("requisite set record without requisite_set_group_id")
	}
	name := r.str("name")
	if name == "" {
		return nil, fmt.Errorf("requisite set %s without name", groupID)
	}
	return &types.RequisiteSet{
		RequisiteSetGroupID: groupID,
		Name:                name,
		Description:         r.strPtr("description"),
		RawJSON:             rawJSON(raw),
	}, nil
}

func programFromRecord(raw map[string]any) (*types.Program, error) {
	r := newRecord(raw)
	groupID := r.str("program_group_id", "id")
	if groupID == "" {
		return nil, fmt.Errorf("program record without program_group_id")
	}
	desc := normalization.ParseDescription(r.strPtr("description"))
	return &types.Program{
		ProgramGroupID: groupID,
		Code:           strings.ToUpper(r.str("code")),
		Name:           r.str("name", "long_name"),
		Description:    desc.Description,
		Notes:          desc.Notes,
		AKA:            desc.AKA,
		Departments:    datatypes.JSONSlice[string](r.codes("departments")),
		Faculties:      datatypes.JSONSlice[string](r.codes("faculties")),
		Active:         r.boolOr("active", true),
		RawJSON:        rawJSON(raw),
	}, nil
}
