package fix

import (
	"fmt"
	"strings"
)

// Side is the tag 54 code.
type Side string

const (
	SideBuy              Side = "1"
	SideSell             Side = "2"
	SideBuyMinus         Side = "3"
	SideSellPlus         Side = "4"
	SideSellShort        Side = "5"
	SideSellShortExempt  Side = "6"
	SideUndisclosed      Side = "7"
	SideCross            Side = "8"
	SideCrossShort       Side = "9"
	SideCrossShortExempt Side = "A"
	SideAsDefined        Side = "B"
	SideOpposite         Side = "C"
	SideSubscribe        Side = "D"
	SideRedeem           Side = "E"
	SideLend             Side = "F"
	SideBorrow           Side = "G"
)

var sideNames = map[string]Side{
	"buy":                SideBuy,
	"sell":               SideSell,
	"buy_minus":          SideBuyMinus,
	"sell_plus":          SideSellPlus,
	"sell_short":         SideSellShort,
	"sell_short_exempt":  SideSellShortExempt,
	"undisclosed":        SideUndisclosed,
	"cross":              SideCross,
	"cross_short":        SideCrossShort,
	"cross_short_exempt": SideCrossShortExempt,
	"as_defined":         SideAsDefined,
	"opposite":           SideOpposite,
	"subscribe":          SideSubscribe,
	"redeem":             SideRedeem,
	"lend":               SideLend,
	"borrow":             SideBorrow,
}

// ParseSide accepts either a name ("sell") or a wire code ("2").
func ParseSide(s string) (Side, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if side, ok := sideNames[s]; ok {
		return side, nil
	}
	for _, side := range sideNames {
		if strings.EqualFold(string(side), s) {
			return side, nil
		}
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// String returns the side's name, or its code if unnamed.
func (s Side) String() string {
	for name, side := range sideNames {
		if side == s {
			return name
		}
	}
	return string(s)
}

// OrdType is the tag 40 code.
type OrdType string

const (
	OrdTypeMarket                     OrdType = "1"
	OrdTypeLimit                      OrdType = "2"
	OrdTypeStop                       OrdType = "3"
	OrdTypeStopLimit                  OrdType = "4"
	OrdTypeWithOrWithout              OrdType = "6"
	OrdTypeLimitOrBetter              OrdType = "7"
	OrdTypeLimitWithOrWithout         OrdType = "8"
	OrdTypeOnBasis                    OrdType = "9"
	OrdTypePreviouslyQuoted           OrdType = "D"
	OrdTypePreviouslyIndicated        OrdType = "E"
	OrdTypeForexSwap                  OrdType = "G"
	OrdTypeFunari                     OrdType = "I"
	OrdTypeMarketIfTouched            OrdType = "J"
	OrdTypeMarketWithLeftOverAsLimit  OrdType = "K"
	OrdTypePreviousFundValuationPoint OrdType = "L"
	OrdTypeNextFundValuationPoint     OrdType = "M"
	OrdTypePegged                     OrdType = "P"
)

var ordTypeNames = map[string]OrdType{
	"market":                         OrdTypeMarket,
	"limit":                          OrdTypeLimit,
	"stop":                           OrdTypeStop,
	"stop_limit":                     OrdTypeStopLimit,
	"with_or_without":                OrdTypeWithOrWithout,
	"limit_or_better":                OrdTypeLimitOrBetter,
	"limit_with_or_without":          OrdTypeLimitWithOrWithout,
	"on_basis":                       OrdTypeOnBasis,
	"previously_quoted":              OrdTypePreviouslyQuoted,
	"previously_indicated":           OrdTypePreviouslyIndicated,
	"forex_swap":                     OrdTypeForexSwap,
	"funari":                         OrdTypeFunari,
	"market_if_touched":              OrdTypeMarketIfTouched,
	"market_with_left_over_as_limit": OrdTypeMarketWithLeftOverAsLimit,
	"previous_fund_valuation_point":  OrdTypePreviousFundValuationPoint,
	"next_fund_valuation_point":      OrdTypeNextFundValuationPoint,
	"pegged":                         OrdTypePegged,
}

// ParseOrdType accepts either a name ("limit") or a wire code ("2").
func ParseOrdType(s string) (OrdType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if t, ok := ordTypeNames[s]; ok {
		return t, nil
	}
	for _, t := range ordTypeNames {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown order type %q", s)
}

// String returns the type's name, or its code if unnamed.
func (t OrdType) String() string {
	for name, v := range ordTypeNames {
		if v == t {
			return name
		}
	}
	return string(t)
}

// Priced reports whether orders of this type carry a limit price (tag 44).
func (t OrdType) Priced() bool {
	switch t {
	case OrdTypeLimit, OrdTypeStopLimit, OrdTypeLimitOrBetter, OrdTypeLimitWithOrWithout:
		return true
	}
	return false
}

// Order status codes (tag 39).
const (
	OrdStatusNew             = "0"
	OrdStatusPartiallyFilled = "1"
	OrdStatusFilled          = "2"
	OrdStatusDoneForDay      = "3"
	OrdStatusCanceled        = "4"
	OrdStatusPendingCancel   = "6"
	OrdStatusStopped         = "7"
	OrdStatusRejected        = "8"
	OrdStatusSuspended       = "9"
	OrdStatusPendingNew      = "A"
	OrdStatusExpired         = "C"
	OrdStatusPendingReplace  = "E"
)

// TimeInForceGoodTillCancel is the only time-in-force this client sends.
const TimeInForceGoodTillCancel = "1"

// Market identifiers (tag 1301). An empty or "none" market marks an indicative quote.
const (
	MarketFirm       = "0"
	MarketIndicative = "none"
)
