package selection

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/mbtiatlas/insights/consts"
	"github.com/mbtiatlas/insights/dataset"
)

type Mode string

const (
	ModeSingle   Mode = "single"
	ModeMultiple Mode = "multiple"
)

// ErrEmptySelection means the multiple-type view was asked for with no types.
// It is a warning: nothing should be rendered.
var ErrEmptySelection = errors.New("select at least one MBTI type to compare")

// Params are the user's view choices for one interaction.
type Params struct {
	Mode      Mode     `validate:"required,oneof=single multiple"`
	Type      string   `validate:"required_if=Mode single,omitempty,mbti"`
	Types     []string `validate:"omitempty,dive,mbti"`
	TopN      int      `validate:"min=5,max=20"`
	ShowTable bool
	Hover     string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("mbti", func(fl validator.FieldLevel) bool {
		return dataset.IsTypeCode(fl.Field().String())
	})
	return v
}

// Validate checks the parameters after ClampTopN has been applied.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid selection: %w", err)
	}
	return nil
}

// Codes returns the type codes the parameters refer to.
func (p Params) Codes() []string {
	if p.Mode == ModeSingle {
		return []string{p.Type}
	}
	return p.Types
}

// ClampTopN bounds n to [consts.TopNMin, consts.TopNMax].
func ClampTopN(n int) int {
	return min(max(n, consts.TopNMin), consts.TopNMax)
}

// DefaultCompareTypes picks the initial multiple-type selection: the usual four when the
// dataset has all of them, otherwise its first four types.
func DefaultCompareTypes(types []string) []string {
	all := true
	for _, t := range consts.DefaultCompareTypes {
		if !slices.Contains(types, t) {
			all = false
			break
		}
	}
	if all {
		return slices.Clone(consts.DefaultCompareTypes)
	}
	return slices.Clone(types[:min(4, len(types))])
}

// SelectTop returns the records of one type with Rank <= n, best first.
func SelectTop(records []dataset.LongRecord, code string, n int) []dataset.LongRecord {
	var out []dataset.LongRecord
	for _, r := range records {
		if r.TypeCode == code && r.Rank <= n {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b dataset.LongRecord) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
	return out
}

// SelectTopMulti returns the records of every listed type with Rank <= n,
// grouped by type code (sorted) and best first inside each group.
func SelectTopMulti(records []dataset.LongRecord, codes []string, n int) []dataset.LongRecord {
	var out []dataset.LongRecord
	for _, r := range records {
		if r.Rank <= n && slices.Contains(codes, r.TypeCode) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b dataset.LongRecord) int {
		return cmp.Or(
			cmp.Compare(a.TypeCode, b.TypeCode),
			cmp.Compare(a.Rank, b.Rank),
		)
	})
	return out
}

// Apply selects the records for p. In multiple mode with no types it returns
// ErrEmptySelection and no records.
func Apply(records []dataset.LongRecord, p Params) ([]dataset.LongRecord, error) {
	if p.Mode == ModeMultiple {
		if len(p.Types) == 0 {
			return nil, ErrEmptySelection
		}
		return SelectTopMulti(records, p.Types, p.TopN), nil
	}
	return SelectTop(records, p.Type, p.TopN), nil
}
