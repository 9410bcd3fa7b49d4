package factory_test

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/medevac-engine/factory"
	"github.com/warp/medevac-engine/generic"
	"github.com/warp/medevac-engine/medevac"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseCase_CoercesLooseValues(t *testing.T) {
	// GIVEN: A document with numbers as strings, garbage amounts and a timestamp
	doc := `{
		"patientName": "DOE, JANE",
		"agencyType": "MSG",
		"initialStartDate": "2025-01-06T09:00:00Z",
		"initialEndDate": "not a date",
		"perDiems": [{"rate": "200", "days": 3}, {"rate": 150, "days": "2"}],
		"airfare": "$500",
		"miscExpenses": "lots",
		"totalPerDiemAdditionalTravelers": null,
		"comments": 42
	}`

	r, err := factory.NewCaseFactory().ParseCase([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, medevac.AgencyMSG, r.AgencyType)
	assert.Equal(t, "2025-01-06", r.InitialStartDate.String())
	assert.True(t, r.InitialEndDate.IsZero())
	require.Len(t, r.PerDiems, 2)
	assert.True(t, r.PerDiems[0].Rate.Equal(money("200")))
	assert.Equal(t, 2, r.PerDiems[1].Days)
	assert.True(t, r.Airfare.Equal(money("500")))
	assert.True(t, r.MiscExpenses.IsZero())
	assert.True(t, r.TotalPerDiemAdditionalTravelers.IsZero())
	assert.Equal(t, "42", r.Comments)
}

func TestParseCase_PatientNameDisplayFormat(t *testing.T) {
	f := factory.NewCaseFactory()

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"split fields", `{"patientLastName": "Doe", "patientFirstName": "jane"}`, "DOE, JANE"},
		{"split fields win", `{"patientName": "x", "patientLastName": "Doe", "patientFirstName": "Jane"}`, "DOE, JANE"},
		{"last name only", `{"patientLastName": "doe"}`, "DOE"},
		{"comma form", `{"patientName": "doe,jane "}`, "DOE, JANE"},
		{"already formatted", `{"patientName": "DOE, JANE"}`, "DOE, JANE"},
		{"single word", `{"patientName": " smith "}`, "SMITH"},
		{"missing", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := f.ParseCase([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.PatientName)
		})
	}
}

func TestParsePerDiem(t *testing.T) {
	f := factory.NewCaseFactory()

	pd, err := f.ParsePerDiem([]byte(`{"rate": "212.50", "days": "4"}`))
	require.NoError(t, err)
	assert.True(t, pd.Rate.Equal(money("212.50")))
	assert.Equal(t, 4, pd.Days)

	_, err = f.ParsePerDiem([]byte(`[]`))
	assert.ErrorIs(t, err, generic.ErrInvalidDocument)
}

func TestParseCase_LegacyFlatPerDiemsAndSingleAmendment(t *testing.T) {
	doc := `{
		"perDiemRate1": 200, "perDiemDays1": 3,
		"perDiemRate3": 150, "perDiemDays3": 2,
		"amendment": {"amendedEndDate": "2025-01-20", "fundingTotal": "300"}
	}`

	r, err := factory.NewCaseFactory().ParseCase([]byte(doc))
	require.NoError(t, err)

	require.Len(t, r.PerDiems, 2)
	assert.Equal(t, 2, r.PerDiems[1].Days)
	require.Len(t, r.Amendments, 1)
	assert.True(t, r.Amendments[0].FundingTotal.Equal(money("300")))
}

func TestParseCase_EmptyDocumentGetsOnePerDiemLine(t *testing.T) {
	r, err := factory.NewCaseFactory().ParseCase([]byte(`{}`))
	require.NoError(t, err)
	assert.Len(t, r.PerDiems, 1)
	assert.Empty(t, r.Extensions)
	assert.Empty(t, r.Amendments)
}

func TestParseCase_ExtensionNumbers(t *testing.T) {
	f := factory.NewCaseFactory()

	// Numbers omitted: assigned by position.
	r, err := f.ParseCase([]byte(`{"extensions": [{"medevacLocation": "A"}, {"medevacLocation": "B"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Extensions[0].ExtensionNumber)
	assert.Equal(t, 2, r.Extensions[1].ExtensionNumber)

	// Numbers given with a gap: kept, so the engine rejects them.
	r, err = f.ParseCase([]byte(`{"extensions": [{"extensionNumber": 1}, {"extensionNumber": 3}]}`))
	require.NoError(t, err)
	_, err = medevac.Recompute(&r, generic.NewTimePoint(2025, time.January, 6))
	assert.ErrorIs(t, err, medevac.ErrExtensionNumbering)
}

func TestParseCase_TwoAmendmentsReachTheContractCheck(t *testing.T) {
	r, err := factory.NewCaseFactory().ParseCase([]byte(`{"amendments": [{}, {}]}`))
	require.NoError(t, err)

	_, err = medevac.Recompute(&r, generic.NewTimePoint(2025, time.January, 6))
	assert.ErrorIs(t, err, medevac.ErrTooManyAmendments)
}

func TestParseCase_InvalidJSON(t *testing.T) {
	f := factory.NewCaseFactory()
	for _, body := range []string{``, `[1,2]`, `{"a":`, `null`} {
		_, err := f.ParseCase([]byte(body))
		assert.ErrorIs(t, err, generic.ErrInvalidDocument, "body %q", body)
	}
}

func TestMergedDocument_RoundTrip(t *testing.T) {
	// GIVEN: A record with an extension, recomputed
	f := factory.NewCaseFactory()
	r, err := f.ParseCase([]byte(`{
		"agencyType": "DOS",
		"obligationNumber": "2510001",
		"initialStartDate": "2025-01-06",
		"initialEndDate": "2025-01-10",
		"fundingCableInDate": "2025-01-06",
		"perDiems": [{"rate": 200, "days": 3}],
		"extensions": [{"extensionNumber": 1, "extensionEndDate": "2025-01-20", "airfare": 80}]
	}`))
	require.NoError(t, err)
	now := generic.NewTimePoint(2025, time.January, 10)
	d, err := medevac.Recompute(&r, now)
	require.NoError(t, err)

	// WHEN: Rendered as a merged document
	data, err := f.MergedDocument(r, d)
	require.NoError(t, err)

	// THEN: Record and derived keys share one object
	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "Initial In Processing", flat["medevacStatus"])
	assert.Equal(t, "2025-01-20", flat["effectiveEndDate"])
	assert.Equal(t, "680", flat["totalObligation"])
	assert.Equal(t, "DOS", flat["agencyType"])
	ext := flat["extensions"].([]any)[0].(map[string]any)
	assert.Equal(t, "80", ext["extensionFundingTotal"])

	// AND: Parsing it back and recomputing gives the same derived fields
	back, err := f.ParseCase(data)
	require.NoError(t, err)
	again, err := medevac.Recompute(&back, now)
	require.NoError(t, err)
	assert.Equal(t, d.TotalObligation.String(), again.TotalObligation.String())
	assert.Equal(t, d.MedevacStatus, again.MedevacStatus)
	assert.Equal(t, d.EffectiveEndDate, again.EffectiveEndDate)
	assert.Equal(t, d.CompletionPercentage, again.CompletionPercentage)
}

func TestParsePostsYAML(t *testing.T) {
	posts, err := factory.ParsePostsYAML(strings.NewReader(`
posts:
  - city: Nairobi
    country: Kenya
    region: AF
  - city: Bangkok
    country: Thailand
    region: EAP
`))
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, medevac.Post{City: "Nairobi", Country: "Kenya", Region: "AF"}, posts[0])

	posts, err = factory.ParsePostsYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, posts)

	_, err = factory.ParsePostsYAML(strings.NewReader("posts: [unclosed"))
	assert.Error(t, err)
}
