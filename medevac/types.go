// Package medevac implements the derived-state engine for medical-evacuation
// cases. Every derived value (status, effective dates, cable timing, funding
// totals, completion score) is a pure function of a CaseRecord and "now".
package medevac

import (
	"slices"

	"github.com/shopspring/decimal"
	"github.com/warp/medevac-engine/generic"
)

// =============================================================================
// CLASSIFICATION
// =============================================================================

type AgencyType string

const (
	AgencyMSG       AgencyType = "MSG"
	AgencyDOS       AgencyType = "DOS"
	AgencySeabee    AgencyType = "Seabee"
	AgencyDOSSeabee AgencyType = "DOS/Seabee"
)

type TravelerType string

const (
	TravelerEmployee  TravelerType = "EMP"
	TravelerFamily    TravelerType = "EFM"
	TravelerDependent TravelerType = "DEP"
)

type Route string

const (
	RouteCONUS  Route = "CONUS"
	RouteOCONUS Route = "OCONUS"
)

// BDEmployee identifies which budget office processed a cable.
type BDEmployee string

const (
	BDEmployeeFS BDEmployee = "FS"
	BDEmployeeLS BDEmployee = "LS"
)

// MedevacType is the case category.
type MedevacType string

const (
	MedevacMedical     MedevacType = "Medical"
	MedevacDental      MedevacType = "Dental"
	MedevacObstetric   MedevacType = "Obstetrical"
	MedevacMental      MedevacType = "Mental Health"
	MedevacDualPurpose MedevacType = "Dual Purpose"
)

// =============================================================================
// LIMITS
// =============================================================================

const (
	MaxAmendments     = 1
	MaxExtensions     = 10
	MaxPerDiemEntries = 4
	MinPerDiemEntries = 1
	MaxCommentLength  = 1000
)

// =============================================================================
// CASE RECORD - Everything a user can edit
// =============================================================================

// PerDiem is one rate x days line of the initial funding period.
type PerDiem struct {
	Rate decimal.Decimal `json:"rate"`
	Days int             `json:"days"`
}

// ExtensionPerDiem is a per-diem line of an extension, tied to a location.
type ExtensionPerDiem struct {
	Rate     decimal.Decimal `json:"rate"`
	Days     int             `json:"days"`
	Location string          `json:"location"`
}

// Amendment is the single optional revision of the initial funding period.
type Amendment struct {
	AmendedStartDate generic.TimePoint `json:"amendedStartDate"`
	AmendedEndDate   generic.TimePoint `json:"amendedEndDate"`
	AmendedLocation  string            `json:"amendedLocation"`
	CableInDate      generic.TimePoint `json:"cableInDate"`
	CableSentDate    generic.TimePoint `json:"cableSentDate"`
	BDEmployee       BDEmployee        `json:"bdEmployee"`
	FundingTotal     decimal.Decimal   `json:"fundingTotal"`
}

// Extension is an additional funding period. Numbers run 1..N without gaps.
type Extension struct {
	ExtensionNumber                 int                `json:"extensionNumber"`
	ExtensionEndDate                generic.TimePoint  `json:"extensionEndDate"`
	FundingCableInDate              generic.TimePoint  `json:"fundingCableInDate"`
	FundingCableOutDate             generic.TimePoint  `json:"fundingCableOutDate"`
	BDEmployee                      BDEmployee         `json:"bdEmployee"`
	MedevacLocation                 string             `json:"medevacLocation"`
	PerDiems                        []ExtensionPerDiem `json:"perDiems"`
	Airfare                         decimal.Decimal    `json:"airfare"`
	TotalPerDiemAdditionalTravelers decimal.Decimal    `json:"totalPerDiemAdditionalTravelers"`
	AdditionalPerDiemAmount         decimal.Decimal    `json:"additionalPerDiemAmount"`

	// Derived; overwritten on every recompute.
	ExtensionFundingTotal decimal.Decimal `json:"extensionFundingTotal"`
}

// CaseRecord is the editable state of one MEDEVAC case.
type CaseRecord struct {
	ObligationNumber string `json:"obligationNumber"`
	PatientName      string `json:"patientName"`

	AgencyType   AgencyType   `json:"agencyType"`
	MedevacType  MedevacType  `json:"medevacType"`
	TravelerType TravelerType `json:"travelerType"`
	Route        Route        `json:"route"`

	HomePost               string `json:"homePost"`
	InitialMedevacLocation string `json:"initialMedevacLocation"`

	InitialStartDate     generic.TimePoint `json:"initialStartDate"`
	InitialEndDate       generic.TimePoint `json:"initialEndDate"`
	FundingCableInDate   generic.TimePoint `json:"fundingCableInDate"`
	FundingCableSentDate generic.TimePoint `json:"fundingCableSentDate"`
	BDEmployee           BDEmployee        `json:"bdEmployee"`

	PerDiems                        []PerDiem       `json:"perDiems"`
	TotalPerDiemAdditionalTravelers decimal.Decimal `json:"totalPerDiemAdditionalTravelers"`
	MiscExpenses                    decimal.Decimal `json:"miscExpenses"`
	Airfare                         decimal.Decimal `json:"airfare"`

	Amendments []Amendment `json:"amendments"`
	Extensions []Extension `json:"extensions"`

	CompletionStatus string            `json:"completionStatus"`
	ActualStartDate  generic.TimePoint `json:"actualStartDate"`
	ActualEndDate    generic.TimePoint `json:"actualEndDate"`
	AirfareApproved  decimal.Decimal   `json:"airfareApproved"`
	PerDiemApproved  decimal.Decimal   `json:"perDiemApproved"`
	Comments         string            `json:"comments"`
}

// NewCaseRecord returns a freshly created case: no agency, no obligation
// number, one empty per-diem line.
func NewCaseRecord() CaseRecord {
	return CaseRecord{PerDiems: []PerDiem{{}}}
}

// Amendment returns the case amendment, or nil when there is none.
func (r *CaseRecord) Amendment() *Amendment {
	if len(r.Amendments) == 0 {
		return nil
	}
	return &r.Amendments[0]
}

// LastExtension returns the most recently added extension, or nil.
func (r *CaseRecord) LastExtension() *Extension {
	if len(r.Extensions) == 0 {
		return nil
	}
	return &r.Extensions[len(r.Extensions)-1]
}

// Clone returns a deep copy so edits never alias the caller's slices.
func (r CaseRecord) Clone() CaseRecord {
	out := r
	out.PerDiems = append([]PerDiem(nil), r.PerDiems...)
	out.Amendments = append([]Amendment(nil), r.Amendments...)
	if r.Extensions != nil {
		out.Extensions = make([]Extension, len(r.Extensions))
		for i, ext := range r.Extensions {
			ext.PerDiems = append([]ExtensionPerDiem(nil), ext.PerDiems...)
			out.Extensions[i] = ext
		}
	}
	return out
}

// =============================================================================
// DERIVED FIELDS - Output of Recompute, never set by a user
// =============================================================================

// DerivedFields is everything Recompute computes from a CaseRecord.
type DerivedFields struct {
	ObligationNumber       string            `json:"obligationNumber"`
	MedevacStatus          string            `json:"medevacStatus"`
	CableStatus            string            `json:"cableStatus"`
	EmployeeResponseTime   int               `json:"employeeResponseTime"`
	EffectiveStartDate     generic.TimePoint `json:"effectiveStartDate"`
	EffectiveEndDate       generic.TimePoint `json:"effectiveEndDate"`
	CurrentMedevacLocation string            `json:"currentMedevacLocation"`
	Region                 string            `json:"region"`
	NumberOfAmendments     int               `json:"numberOfAmendments"`
	ExtensionDuration      int               `json:"extensionDuration"`

	TotalPerDiemPatient    decimal.Decimal   `json:"totalPerDiemPatient"`
	InitialFundingTotal    decimal.Decimal   `json:"initialFundingTotal"`
	ExtensionFundingTotals []decimal.Decimal `json:"extensionFundingTotals"`
	TotalExtensionFunding  decimal.Decimal   `json:"totalExtensionFunding"`
	AmendmentFundingTotal  decimal.Decimal   `json:"amendmentFundingTotal"`
	TotalObligation        decimal.Decimal   `json:"totalObligation"`
	ClosedAmount           decimal.Decimal   `json:"closedAmount"`
	DeobligationAmount     decimal.Decimal   `json:"deobligationAmount"`

	CompletionPercentage int      `json:"completionPercentage"`
	MissingFields        []string `json:"missingFields"`
	Warnings             []string `json:"warnings"`
	IsValid              bool     `json:"isValid"`
	CanSubmit            bool     `json:"canSubmit"`
}

// Clone returns a copy that shares no slices with d.
func (d DerivedFields) Clone() DerivedFields {
	out := d
	out.ExtensionFundingTotals = slices.Clone(d.ExtensionFundingTotals)
	out.MissingFields = slices.Clone(d.MissingFields)
	out.Warnings = slices.Clone(d.Warnings)
	return out
}

// CaseDocument is what the persistence layer stores: the record, the
// derived view computed from it, and bookkeeping.
type CaseDocument struct {
	ID        string        `json:"id"`
	Version   int           `json:"version"`
	UpdatedAt string        `json:"updatedAt"`
	Record    CaseRecord    `json:"record"`
	Derived   DerivedFields `json:"derived"`
}

// Clone returns a document that shares no slices with d.
func (d CaseDocument) Clone() CaseDocument {
	out := d
	out.Record = d.Record.Clone()
	out.Derived = d.Derived.Clone()
	return out
}
