package steps

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	types "github.com/yungbote/coursecatalog-backend/internal/domain"
)

// registryIndex maps RequisiteKey.IndexKey to the registry row.
type registryIndex map[string]*types.Requisite

func indexRegistry(rows []*types.Requisite) registryIndex {
	idx := make(registryIndex, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		idx[r.Key().IndexKey()] = r
	}
	return idx
}

func (idx registryIndex) lookup(key types.RequisiteKey) *types.Requisite {
	return idx[key.IndexKey()]
}

// uniqueRows keeps one row per key. With keepLast the later row replaces the
// earlier one, otherwise the first row seen wins.
func uniqueRows(rows []*types.Requisite, keepLast bool) []*types.Requisite {
	pos := make(map[string]int, len(rows))
	out := make([]*types.Requisite, 0, len(rows))
	for _, r := range rows {
		k := r.Key().IndexKey()
		if i, ok := pos[k]; ok {
			if keepLast {
				out[i] = r
			}
			continue
		}
		pos[k] = len(out)
		out = append(out, r)
	}
	return out
}

func requisiteText(s string) (string, bool) {
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func toJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
