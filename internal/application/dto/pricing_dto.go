package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// PricingRunItemResponse desglose por línea en la respuesta del run.
type PricingRunItemResponse struct {
	ID               string          `json:"id"`
	RFQItemID        string          `json:"rfq_item_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	BaseCost         decimal.Decimal `json:"base_cost"`
	FreightCost      decimal.Decimal `json:"freight_cost"`
	InsuranceCost    decimal.Decimal `json:"insurance_cost"`
	HandlingCost     decimal.Decimal `json:"handling_cost"`
	LocalChargesCost decimal.Decimal `json:"local_charges_cost"`
	LogisticsCost    decimal.Decimal `json:"logistics_cost"`
	DutyCost         decimal.Decimal `json:"duty_cost"`
	LandedCost       decimal.Decimal `json:"landed_cost"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	SellPrice        decimal.Decimal `json:"sell_price"`
	RoundingApplied  decimal.Decimal `json:"rounding_applied"`
}

// RiskResponse campos de riesgo del run (presentes tras la evaluación externa).
type RiskResponse struct {
	Level          string          `json:"level"`
	Score          int             `json:"score"`
	Recommendation string          `json:"recommendation"`
	Rationale      string          `json:"rationale"`
	Confidence     decimal.Decimal `json:"confidence"`
}

// PricingRunResponse respuesta completa de un run.
type PricingRunResponse struct {
	ID                 string                   `json:"id"`
	RFQID              string                   `json:"rfq_id"`
	Status             string                   `json:"status"`
	CurrentLevel       int                      `json:"current_level"`
	Version            int                      `json:"version"`
	Currency           string                   `json:"currency"`
	TotalBaseCost      decimal.Decimal          `json:"total_base_cost"`
	TotalLogisticsCost decimal.Decimal          `json:"total_logistics_cost"`
	TotalDutyCost      decimal.Decimal          `json:"total_duty_cost"`
	TotalCost          decimal.Decimal          `json:"total_cost"`
	TotalPrice         decimal.Decimal          `json:"total_price"`
	MarginPct          decimal.Decimal          `json:"margin_pct"`
	RoundingMethod     string                   `json:"rounding_method"`
	Risk               *RiskResponse            `json:"risk,omitempty"`
	RejectionReason    string                   `json:"rejection_reason,omitempty"`
	AssignedApproverID string                   `json:"assigned_approver_id,omitempty"`
	SLADeadline        *time.Time               `json:"sla_deadline,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	Items              []PricingRunItemResponse `json:"items,omitempty"`
}

// NewPricingRunResponse mapea la entidad a la respuesta HTTP.
func NewPricingRunResponse(run *entity.PricingRun, items []*entity.PricingRunItem) *PricingRunResponse {
	resp := &PricingRunResponse{
		ID:                 run.ID,
		RFQID:              run.RFQID,
		Status:             run.Status,
		CurrentLevel:       run.CurrentLevel,
		Version:            run.Version,
		Currency:           run.Currency,
		TotalBaseCost:      run.TotalBaseCost,
		TotalLogisticsCost: run.TotalLogisticsCost,
		TotalDutyCost:      run.TotalDutyCost,
		TotalCost:          run.TotalCost,
		TotalPrice:         run.TotalPrice,
		MarginPct:          run.MarginPct,
		RoundingMethod:     run.RoundingMethod,
		RejectionReason:    run.RejectionReason,
		AssignedApproverID: run.AssignedApproverID,
		SLADeadline:        run.SLADeadline,
		CreatedAt:          run.CreatedAt,
	}
	if run.Risk != nil {
		resp.Risk = &RiskResponse{
			Level:          run.Risk.Level,
			Score:          run.Risk.Score,
			Recommendation: run.Risk.Recommendation,
			Rationale:      run.Risk.Rationale,
			Confidence:     run.Risk.Confidence,
		}
	}
	for _, it := range items {
		resp.Items = append(resp.Items, PricingRunItemResponse{
			ID:               it.ID,
			RFQItemID:        it.RFQItemID,
			Quantity:         it.Quantity,
			UnitCost:         it.UnitCost,
			BaseCost:         it.BaseCost,
			FreightCost:      it.FreightCost,
			InsuranceCost:    it.InsuranceCost,
			HandlingCost:     it.HandlingCost,
			LocalChargesCost: it.LocalChargesCost,
			LogisticsCost:    it.LogisticsCost,
			DutyCost:         it.DutyCost,
			LandedCost:       it.LandedCost,
			UnitPrice:        it.UnitPrice,
			SellPrice:        it.SellPrice,
			RoundingApplied:  it.RoundingApplied,
		})
	}
	return resp
}
