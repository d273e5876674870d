package entitlement

import (
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
)

// ResultCode classifies the outcome of a redemption-style operation
type ResultCode string

const (
	ResultOK          ResultCode = "ok"
	ResultAlreadyUsed ResultCode = "already_used"
	ResultNotLoggedIn ResultCode = "not_logged_in"
	ResultNotFound    ResultCode = "not_found"
	ResultInactive    ResultCode = "inactive"
	ResultExhausted   ResultCode = "exhausted"
	ResultExpired     ResultCode = "expired"
	ResultInvalid     ResultCode = "invalid"
	ResultNotEligible ResultCode = "not_eligible"
	ResultError       ResultCode = "error"
)

// RedemptionResult reports validation outcomes as values. Callers display Message.
type RedemptionResult struct {
	Success bool        `json:"success"`
	Code    ResultCode  `json:"code"`
	Message string      `json:"message"`
	Plan    domain.Plan `json:"plan,omitempty"`
}

func succeeded(msg string, plan domain.Plan) RedemptionResult {
	return RedemptionResult{Success: true, Code: ResultOK, Message: msg, Plan: plan}
}

func failed(code ResultCode, msg string) RedemptionResult {
	return RedemptionResult{Code: code, Message: msg}
}

// PurchaseOutcome is the result of Engine.PurchaseProduct
type PurchaseOutcome struct {
	Success   bool        `json:"success"`
	Cancelled bool        `json:"cancelled"`
	Plan      domain.Plan `json:"plan"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
}
