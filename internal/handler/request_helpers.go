package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// DecodeAndValidateRequest decodes a JSON request body and validates it.
// If it returns an error the response has already been written.
//
//	var req PromoRequest
//	if err := DecodeAndValidateRequest(r, w, &req, "Apply promo"); err != nil {
//	    return
//	}
func DecodeAndValidateRequest(r *http.Request, w http.ResponseWriter, req interface{}, actionName string) error {
	log := logger.FromContext(r.Context())

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Warn(LogMsgDecodeFailed, "action", actionName, "error", err)
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return err
	}

	if err := GetValidator().ValidateStruct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  ErrMsgInvalidRequestSummary,
			Fields: FormatValidationError(err),
		})
		return err
	}

	return nil
}

// identityFromRequest resolves the caller. A user id wins over a device id;
// when both are present the device's guest session seeds the account.
// ok is false when neither header is set.
func identityFromRequest(r *http.Request) (domain.Identity, bool) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	deviceID := strings.TrimSpace(r.Header.Get(HeaderDeviceID))

	switch {
	case userID != "" && deviceID != "":
		return domain.User(userID).WithDevice(deviceID), true
	case userID != "":
		return domain.User(userID), true
	case deviceID != "":
		return domain.Guest(deviceID), true
	}
	return domain.Identity{}, false
}

// periodOrDefault treats an omitted billing period as monthly
func periodOrDefault(p domain.BillingPeriod) domain.BillingPeriod {
	if p == "" {
		return domain.PeriodMonthly
	}
	return p
}
