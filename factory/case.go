/*
Package factory converts loosely-typed JSON documents into case records.

PURPOSE:
  Case documents arrive from a form UI and from the store. Numbers may come
  as strings, dates as RFC3339 timestamps, fields may be missing. The
  factory coerces every value to a safe default instead of failing, so the
  engine only ever sees well-typed records.

JSON SCHEMA (abridged):
  {
    "patientName": "DOE, JANE",          (or patientLastName + patientFirstName)
    "agencyType": "DOS",
    "initialStartDate": "2025-01-06",
    "perDiems": [{"rate": 200, "days": 3}],
    "airfare": "500",
    "amendments": [{"amendedEndDate": "2025-01-20", "fundingTotal": 300}],
    "extensions": [{"extensionNumber": 1, "perDiems": [{"rate": 180, "days": 5, "location": "Pretoria"}]}]
  }

  Older documents carry per-diem lines as flat perDiemRate1..4 /
  perDiemDays1..4 fields and a single "amendment" object; both are accepted.

FAILURES:
  Only a body that is not a JSON object fails. Shape problems the engine
  treats as contract violations (two amendments, misnumbered extensions)
  are passed through untouched so Recompute can report them.

SEE ALSO:
  - medevac/types.go: CaseRecord
  - generic/types.go: Coercion helpers
*/
package factory

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/warp/medevac-engine/generic"
	"github.com/warp/medevac-engine/medevac"
)

// CaseFactory converts JSON case documents to records and back.
type CaseFactory struct{}

// NewCaseFactory creates a new case factory.
func NewCaseFactory() *CaseFactory {
	return &CaseFactory{}
}

// ParseCase decodes a case document. Derived keys in a merged document are
// ignored; they are recomputed, never read back.
func (f *CaseFactory) ParseCase(data []byte) (medevac.CaseRecord, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return medevac.CaseRecord{}, err
	}
	return f.FromMap(raw), nil
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", generic.ErrInvalidDocument, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: document is null", generic.ErrInvalidDocument)
	}
	return raw, nil
}

// FromMap builds a record from an already-decoded document.
func (f *CaseFactory) FromMap(raw map[string]any) medevac.CaseRecord {
	r := medevac.CaseRecord{
		ObligationNumber: str(raw, "obligationNumber"),
		PatientName:      patientName(raw),

		AgencyType:   medevac.AgencyType(str(raw, "agencyType")),
		MedevacType:  medevac.MedevacType(str(raw, "medevacType")),
		TravelerType: medevac.TravelerType(str(raw, "travelerType")),
		Route:        medevac.Route(str(raw, "route")),

		HomePost:               str(raw, "homePost"),
		InitialMedevacLocation: str(raw, "initialMedevacLocation"),

		InitialStartDate:     day(raw, "initialStartDate"),
		InitialEndDate:       day(raw, "initialEndDate"),
		FundingCableInDate:   day(raw, "fundingCableInDate"),
		FundingCableSentDate: day(raw, "fundingCableSentDate"),
		BDEmployee:           medevac.BDEmployee(str(raw, "bdEmployee")),

		TotalPerDiemAdditionalTravelers: generic.CoerceMoney(raw["totalPerDiemAdditionalTravelers"]),
		MiscExpenses:                    generic.CoerceMoney(raw["miscExpenses"]),
		Airfare:                         generic.CoerceMoney(raw["airfare"]),

		CompletionStatus: str(raw, "completionStatus"),
		ActualStartDate:  day(raw, "actualStartDate"),
		ActualEndDate:    day(raw, "actualEndDate"),
		AirfareApproved:  generic.CoerceMoney(raw["airfareApproved"]),
		PerDiemApproved:  generic.CoerceMoney(raw["perDiemApproved"]),
		Comments:         generic.CoerceString(raw["comments"]),
	}

	r.PerDiems = parsePerDiems(raw)
	r.Amendments = parseAmendments(raw)
	r.Extensions = parseExtensions(raw)
	return medevac.Normalize(r)
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// patientName builds the "LAST, FIRST" display name from split name fields,
// or reformats a posted patientName.
func patientName(raw map[string]any) string {
	last, first := str(raw, "patientLastName"), str(raw, "patientFirstName")
	if last != "" || first != "" {
		return medevac.FormatPatientName(last, first)
	}
	name := str(raw, "patientName")
	if before, after, ok := strings.Cut(name, ","); ok {
		return medevac.FormatPatientName(before, after)
	}
	return medevac.FormatPatientName(name, "")
}

func str(raw map[string]any, key string) string {
	return generic.CoerceString(raw[key])
}

func day(raw map[string]any, key string) generic.TimePoint {
	return generic.CoerceTimePoint(raw[key])
}

func objects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func parsePerDiems(raw map[string]any) []medevac.PerDiem {
	var out []medevac.PerDiem
	if items, ok := raw["perDiems"]; ok {
		for _, m := range objects(items) {
			out = append(out, parsePerDiem(m))
		}
		return out
	}

	// Flat legacy fields: perDiemRate1/perDiemDays1 ... perDiemRate4/perDiemDays4.
	for i := 1; i <= medevac.MaxPerDiemEntries; i++ {
		n := strconv.Itoa(i)
		rate, hasRate := raw["perDiemRate"+n]
		days, hasDays := raw["perDiemDays"+n]
		if !hasRate && !hasDays {
			continue
		}
		out = append(out, medevac.PerDiem{
			Rate: generic.CoerceMoney(rate),
			Days: generic.CoerceDays(days),
		})
	}
	return out
}

func parsePerDiem(m map[string]any) medevac.PerDiem {
	return medevac.PerDiem{
		Rate: generic.CoerceMoney(m["rate"]),
		Days: generic.CoerceDays(m["days"]),
	}
}

func parseAmendment(m map[string]any) medevac.Amendment {
	return medevac.Amendment{
		AmendedStartDate: day(m, "amendedStartDate"),
		AmendedEndDate:   day(m, "amendedEndDate"),
		AmendedLocation:  str(m, "amendedLocation"),
		CableInDate:      day(m, "cableInDate"),
		CableSentDate:    day(m, "cableSentDate"),
		BDEmployee:       medevac.BDEmployee(str(m, "bdEmployee")),
		FundingTotal:     generic.CoerceMoney(m["fundingTotal"]),
	}
}

func parseAmendments(raw map[string]any) []medevac.Amendment {
	var out []medevac.Amendment
	for _, m := range objects(raw["amendments"]) {
		out = append(out, parseAmendment(m))
	}
	if single, ok := raw["amendment"].(map[string]any); ok && len(out) == 0 {
		out = append(out, parseAmendment(single))
	}
	return out
}

func parseExtensions(raw map[string]any) []medevac.Extension {
	var out []medevac.Extension
	for i, m := range objects(raw["extensions"]) {
		out = append(out, parseExtension(m, i+1))
	}
	return out
}

func parseExtension(m map[string]any, position int) medevac.Extension {
	ext := medevac.Extension{
		ExtensionNumber:                 position,
		ExtensionEndDate:                day(m, "extensionEndDate"),
		FundingCableInDate:              day(m, "fundingCableInDate"),
		FundingCableOutDate:             day(m, "fundingCableOutDate"),
		BDEmployee:                      medevac.BDEmployee(str(m, "bdEmployee")),
		MedevacLocation:                 str(m, "medevacLocation"),
		Airfare:                         generic.CoerceMoney(m["airfare"]),
		TotalPerDiemAdditionalTravelers: generic.CoerceMoney(m["totalPerDiemAdditionalTravelers"]),
		AdditionalPerDiemAmount:         generic.CoerceMoney(m["additionalPerDiemAmount"]),
	}
	// An explicit number is kept as given so misnumbering reaches the
	// contract check instead of being silently repaired.
	if n, ok := m["extensionNumber"]; ok {
		ext.ExtensionNumber = generic.CoerceDays(n)
	}
	for _, pd := range objects(m["perDiems"]) {
		ext.PerDiems = append(ext.PerDiems, medevac.ExtensionPerDiem{
			Rate:     generic.CoerceMoney(pd["rate"]),
			Days:     generic.CoerceDays(pd["days"]),
			Location: str(pd, "location"),
		})
	}
	return ext
}

// ParseExtension decodes a single extension document. Its number is
// assigned by the edit that adds it.
func (f *CaseFactory) ParseExtension(data []byte) (medevac.Extension, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return medevac.Extension{}, err
	}
	return parseExtension(raw, 0), nil
}

// ParsePerDiem decodes a single initial per-diem line.
func (f *CaseFactory) ParsePerDiem(data []byte) (medevac.PerDiem, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return medevac.PerDiem{}, err
	}
	return parsePerDiem(raw), nil
}

// ParseAmendment decodes a single amendment document.
func (f *CaseFactory) ParseAmendment(data []byte) (medevac.Amendment, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return medevac.Amendment{}, err
	}
	return parseAmendment(raw), nil
}

// =============================================================================
// MERGED DOCUMENT - {...record, ...derived}
// =============================================================================

// MergedDocument renders the record with its derived fields laid over it,
// the shape the UI displays and the store keeps.
func (f *CaseFactory) MergedDocument(r medevac.CaseRecord, d medevac.DerivedFields) ([]byte, error) {
	merged, err := toMap(medevac.Merge(&r, d))
	if err != nil {
		return nil, err
	}
	derived, err := toMap(d)
	if err != nil {
		return nil, err
	}
	for k, v := range derived {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return out, nil
}
