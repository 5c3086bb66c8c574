package executor

import "aurumbot/internal/ports"

// decodeRetCode maps a venue return code to an operator-readable reason.
func decodeRetCode(code ports.RetCode) string {
	switch code {
	case ports.RetDone:
		return "done"
	case ports.RetPlaced:
		return "order placed"
	case ports.RetRequote:
		return "requote"
	case ports.RetRejected:
		return "request rejected"
	case ports.RetInvalidVolume:
		return "invalid volume"
	case ports.RetInvalidPrice:
		return "invalid price"
	case ports.RetInvalidStops:
		return "invalid stops"
	case ports.RetTradeDisabled:
		return "trading disabled"
	case ports.RetMarketClosed:
		return "market closed"
	case ports.RetNoMoney:
		return "insufficient funds"
	case ports.RetPriceChanged:
		return "price changed"
	case ports.RetPriceOff:
		return "off quotes"
	case ports.RetTooManyRequests:
		return "too many requests"
	case ports.RetNoChanges:
		return "no changes"
	case ports.RetLimitOrders:
		return "order limit reached"
	case ports.RetLimitVolume:
		return "volume limit reached"
	default:
		return "unknown retcode"
	}
}
