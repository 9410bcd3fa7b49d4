package medevac_test

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/medevac-engine/generic"
	"github.com/warp/medevac-engine/medevac"
)

func TestIsComplete(t *testing.T) {
	assert.False(t, medevac.IsComplete(nil))
	assert.False(t, medevac.IsComplete("   "))
	assert.True(t, medevac.IsComplete("x"))
	assert.False(t, medevac.IsComplete(0))
	assert.True(t, medevac.IsComplete(3))
	assert.False(t, medevac.IsComplete(math.NaN()))
	assert.False(t, medevac.IsComplete(math.Inf(1)))
	assert.True(t, medevac.IsComplete(0.5))
	assert.False(t, medevac.IsComplete(decimal.Zero))
	assert.True(t, medevac.IsComplete(decimal.NewFromInt(1)))
	assert.False(t, medevac.IsComplete(generic.TimePoint{}))
	assert.True(t, medevac.IsComplete(jan(6)))
	assert.True(t, medevac.IsComplete(struct{}{}))
}

func TestValidate_CompleteRecord(t *testing.T) {
	r := completeRecord()
	v := medevac.Validate(&r, medevac.InitialFundingTotal(&r))

	assert.Equal(t, 100, v.CompletionPercentage)
	assert.Empty(t, v.Missing)
	assert.Empty(t, v.Warnings)
	assert.True(t, v.IsValid)
	assert.True(t, v.CanSubmit)
}

func TestValidate_Percentage(t *testing.T) {
	// GIVEN: A complete record missing 4 of 13 required fields
	r := completeRecord()
	r.PatientName = ""
	r.Route = ""
	r.BDEmployee = ""
	r.PerDiems[0].Days = 0

	v := medevac.Validate(&r, medevac.InitialFundingTotal(&r))

	// THEN: round(100 * 9 / 13) = 69
	assert.Equal(t, 69, v.CompletionPercentage)
	assert.ElementsMatch(t, []string{"patientName", "route", "bdEmployee", "perDiemDays"}, v.Missing)
	assert.False(t, v.IsValid)
	assert.False(t, v.CanSubmit)
}

func TestValidate_CanSubmitNeedsFunding(t *testing.T) {
	// GIVEN: Every required field set but no initial funding
	r := completeRecord()

	v := medevac.Validate(&r, decimal.Zero)

	// THEN: Valid, yet not submittable
	assert.True(t, v.IsValid)
	assert.False(t, v.CanSubmit)
}

func TestValidate_Warnings(t *testing.T) {
	tests := []struct {
		name string
		edit func(r *medevac.CaseRecord)
		want string
	}{
		{"initial end before start", func(r *medevac.CaseRecord) { r.InitialEndDate = jan(2) }, medevac.WarnInitialEndBeforeStart},
		{"amended end before start", func(r *medevac.CaseRecord) {
			r.Amendments = []medevac.Amendment{{AmendedStartDate: jan(20), AmendedEndDate: jan(15)}}
		}, medevac.WarnAmendedEndBeforeStart},
		{"actual end before start", func(r *medevac.CaseRecord) {
			r.ActualStartDate = jan(9)
			r.ActualEndDate = jan(8)
		}, medevac.WarnActualEndBeforeStart},
		{"extension ends early", func(r *medevac.CaseRecord) {
			r.Extensions = []medevac.Extension{{ExtensionNumber: 1, ExtensionEndDate: jan(8)}}
		}, medevac.WarnExtensionEndEarly},
		{"long comments", func(r *medevac.CaseRecord) { r.Comments = strings.Repeat("x", 1001) }, medevac.WarnCommentsTooLong},
		{"five per diems", func(r *medevac.CaseRecord) {
			r.PerDiems = append(r.PerDiems, medevac.PerDiem{}, medevac.PerDiem{}, medevac.PerDiem{})
		}, medevac.WarnTooManyPerDiems},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := completeRecord()
			tt.edit(&r)
			v := medevac.Validate(&r, medevac.InitialFundingTotal(&r))
			assert.Contains(t, v.Warnings, tt.want)
			assert.Equal(t, 100, v.CompletionPercentage, "warnings do not change the score")
			assert.False(t, v.IsValid)
			assert.False(t, v.CanSubmit)
		})
	}
}

func TestValidate_ExactlyThousandCharsIsFine(t *testing.T) {
	r := completeRecord()
	r.Comments = strings.Repeat("é", 1000)
	v := medevac.Validate(&r, medevac.InitialFundingTotal(&r))
	assert.Empty(t, v.Warnings)
}
