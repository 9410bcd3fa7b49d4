package medevac

import (
	"github.com/shopspring/decimal"
	"github.com/warp/medevac-engine/generic"
)

// =============================================================================
// FUNDING AGGREGATOR
// =============================================================================
//
// Every input amount passes through generic.NonNegative, so a malformed or
// negative value contributes zero. The only signed output is the deobligation.

// Funding holds the aggregated amounts of a case.
type Funding struct {
	TotalPerDiemPatient    decimal.Decimal
	InitialFundingTotal    decimal.Decimal
	ExtensionFundingTotals []decimal.Decimal
	TotalExtensionFunding  decimal.Decimal
	AmendmentFundingTotal  decimal.Decimal
	TotalObligation        decimal.Decimal
	ClosedAmount           decimal.Decimal
	DeobligationAmount     decimal.Decimal
}

func perDiemLine(rate decimal.Decimal, days int) decimal.Decimal {
	return generic.NonNegative(rate).Mul(generic.DaysDecimal(days))
}

// TotalPerDiemPatient sums rate x days over the initial per-diem lines.
func TotalPerDiemPatient(perDiems []PerDiem) decimal.Decimal {
	total := decimal.Zero
	for _, pd := range perDiems {
		total = total.Add(perDiemLine(pd.Rate, pd.Days))
	}
	return total
}

// InitialFundingTotal is the patient per diem plus additional travelers,
// miscellaneous expenses and airfare.
func InitialFundingTotal(r *CaseRecord) decimal.Decimal {
	return generic.SumMoney(
		TotalPerDiemPatient(r.PerDiems),
		generic.NonNegative(r.TotalPerDiemAdditionalTravelers),
		generic.NonNegative(r.MiscExpenses),
		generic.NonNegative(r.Airfare),
	)
}

// ExtensionFundingTotal is one extension's per-diem lines plus its airfare,
// additional travelers and additional per-diem amount.
func ExtensionFundingTotal(ext *Extension) decimal.Decimal {
	total := decimal.Zero
	for _, pd := range ext.PerDiems {
		total = total.Add(perDiemLine(pd.Rate, pd.Days))
	}
	return generic.SumMoney(
		total,
		generic.NonNegative(ext.Airfare),
		generic.NonNegative(ext.TotalPerDiemAdditionalTravelers),
		generic.NonNegative(ext.AdditionalPerDiemAmount),
	)
}

// AmendmentFundingTotal is the amendment's funding total, or zero.
func AmendmentFundingTotal(r *CaseRecord) decimal.Decimal {
	if a := r.Amendment(); a != nil {
		return generic.NonNegative(a.FundingTotal)
	}
	return decimal.Zero
}

// AggregateFunding computes every funding figure of the case.
func AggregateFunding(r *CaseRecord) Funding {
	f := Funding{
		TotalPerDiemPatient:    TotalPerDiemPatient(r.PerDiems),
		InitialFundingTotal:    InitialFundingTotal(r),
		ExtensionFundingTotals: make([]decimal.Decimal, len(r.Extensions)),
		TotalExtensionFunding:  decimal.Zero,
		AmendmentFundingTotal:  AmendmentFundingTotal(r),
		ClosedAmount:           decimal.Zero,
		DeobligationAmount:     decimal.Zero,
	}

	for i := range r.Extensions {
		t := ExtensionFundingTotal(&r.Extensions[i])
		f.ExtensionFundingTotals[i] = t
		f.TotalExtensionFunding = f.TotalExtensionFunding.Add(t)
	}

	f.TotalObligation = generic.SumMoney(f.InitialFundingTotal, f.AmendmentFundingTotal, f.TotalExtensionFunding)

	if r.CompletionStatus != "" {
		f.ClosedAmount = generic.SumMoney(generic.NonNegative(r.AirfareApproved), generic.NonNegative(r.PerDiemApproved))
		f.DeobligationAmount = f.TotalObligation.Sub(f.ClosedAmount)
	}
	return f
}
