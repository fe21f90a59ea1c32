package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/coursecatalog-backend/internal/clients/generator"
	"github.com/yungbote/coursecatalog-backend/internal/data/repos"
	"github.com/yungbote/coursecatalog-backend/internal/modules/requisites/dedupe"
	"github.com/yungbote/coursecatalog-backend/internal/observability"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/batch"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecatalog-backend/internal/pkg/errors"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

const DefaultChoiceCount = 3

type GenerateChoicesDeps struct {
	DB         *gorm.DB
	Log        *logger.Logger
	Requisites repos.RequisiteRepo
	Generator  generator.Generator
}

type GenerateChoicesInput struct {
	RequisiteID uuid.UUID
	N           int
	TxTimeout   time.Duration
}

type GenerateChoicesOutput struct {
	RequisiteID uuid.UUID `json:"requisite_id"`
	Candidates  int       `json:"candidates"`
	AllEqual    bool      `json:"all_equal"`
	Selected    bool      `json:"selected"`
}

// GenerateChoices asks the generator for N candidate trees, stores them as
// json_choices and, when every candidate is identical, selects the first as json.
// Otherwise json is left as it was for manual review.
func GenerateChoices(ctx context.Context, deps GenerateChoicesDeps, in GenerateChoicesInput) (out GenerateChoicesOutput, err error) {
	if deps.DB == nil || deps.Log == nil || deps.Requisites == nil || deps.Generator == nil {
		return out, fmt.Errorf("requisite_choices: missing deps")
	}
	out.RequisiteID = in.RequisiteID
	ctx, span := observability.StartSpan(ctx, "requisites.generate_choices",
		attribute.String("requisite_id", in.RequisiteID.String()))
	defer func() {
		span.SetAttributes(
			attribute.Int("candidates", out.Candidates),
			attribute.Bool("selected", out.Selected),
		)
		observability.EndSpan(span, err)
	}()

	n := in.N
	if n <= 0 {
		n = DefaultChoiceCount
	}

	row, err := deps.Requisites.GetByID(dbctx.Context{Ctx: ctx}, in.RequisiteID)
	if err != nil {
		return out, fmt.Errorf("requisite_choices: load %s: %w", in.RequisiteID, err)
	}
	if row == nil {
		return out, apperr.NotFound("requisite_choices", fmt.Sprintf("requisite %s not found", in.RequisiteID))
	}

	candidates, err := deps.Generator.Generate(ctx, generator.Request{
		Text:          row.Text,
		RequisiteType: string(row.RequisiteType),
		Department:    strings.Join(row.Departments, ","),
		Faculty:       strings.Join(row.Faculties, ","),
		N:             n,
	})
	if err != nil {
		return out, fmt.Errorf("requisite_choices: %w", err)
	}
	if candidates == nil {
		candidates = []any{}
	}
	out.Candidates = len(candidates)

	decision := dedupe.Resolve(candidates)
	out.AllEqual = decision.AllEqual

	choices, err := toJSON(candidates)
	if err != nil {
		return out, fmt.Errorf("requisite_choices: encode choices: %w", err)
	}
	updates := map[string]interface{}{"json_choices": choices}
	if decision.AllEqual {
		selected, err := toJSON(decision.Selected)
		if err != nil {
			return out, fmt.Errorf("requisite_choices: encode selection: %w", err)
		}
		updates["json"] = selected
	}

	err = batch.RunInTransaction(ctx, deps.DB, in.TxTimeout, func(dbc dbctx.Context) error {
		ok, err := deps.Requisites.UpdateFields(dbc, row.ID, updates)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("requisite_choices", fmt.Sprintf("requisite %s deleted during generation", row.ID))
		}
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("requisite_choices: persist: %w", err)
	}
	out.Selected = decision.AllEqual

	deps.Log.Info("requisite choices generated",
		"requisite_id", row.ID,
		"candidates", out.Candidates,
		"all_equal", out.AllEqual,
	)
	return out, nil
}
