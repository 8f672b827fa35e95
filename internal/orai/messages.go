package orai

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"taxcsv/internal/lcd"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MsgKind is the closed set of message variants the classifier dispatches on.
// Everything else routes to the generic transfer detector.
type MsgKind int

const (
	MsgKindUnknown MsgKind = iota
	MsgKindSend
	MsgKindExecuteContract
)

// kindOf maps a protobuf type URL onto a message kind. Cosmos chains prefix
// the URL with the owning module path, so only the trailing element is
// significant.
func kindOf(typeURL string) MsgKind {
	switch {
	case strings.HasSuffix(typeURL, "MsgSend"):
		return MsgKindSend
	case strings.HasSuffix(typeURL, "MsgExecuteContract"):
		return MsgKindExecuteContract
	default:
		return MsgKindUnknown
	}
}

type msgHeader struct {
	Type string `json:"@type"`
}

type msgSend struct {
	FromAddress string     `json:"from_address"`
	ToAddress   string     `json:"to_address"`
	Amount      []lcd.Coin `json:"amount"`
}

type msgExecuteContract struct {
	Sender   string              `json:"sender"`
	Contract string              `json:"contract"`
	Msg      jsoniter.RawMessage `json:"msg"`
	Funds    []lcd.Coin          `json:"funds"`
}

// swapKeywords mark a contract instruction as a DEX swap when any of them
// appears as an object key anywhere in the instruction payload.
var swapKeywords = []string{
	"execute_swap_operations",
	"swap_and_action",
	"swap_exact_asset_in",
	"swap",
}

// isSwapInstruction walks the decoded instruction tree looking for a swap
// keyword used as an object key. Structured key matching replaces the
// stringified-payload substring search: a keyword inside a string value does
// not count.
func isSwapInstruction(instruction jsoniter.RawMessage) bool {
	var tree interface{}
	if err := json.Unmarshal(instruction, &tree); err != nil {
		return false
	}
	return hasAnyKey(tree, swapKeywords)
}

func hasAnyKey(node interface{}, keys []string) bool {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, child := range v {
			for _, want := range keys {
				if key == want {
					return true
				}
			}
			if hasAnyKey(child, keys) {
				return true
			}
		}
	case []interface{}:
		for _, child := range v {
			if hasAnyKey(child, keys) {
				return true
			}
		}
	}
	return false
}

// swapAndAction is the ibc-hooks style swap instruction carrying the
// minimum output asset.
type swapAndAction struct {
	MinAsset struct {
		Native struct {
			Denom string `json:"denom"`
		} `json:"native"`
	} `json:"min_asset"`
}

// addTx is the bridge deposit instruction shape.
type addTx struct {
	Value struct {
		TxType      string `json:"tx_type"`
		RemoteDenom string `json:"remote_denom"`
		Amount      string `json:"amount"`
		Receiver    string `json:"receiver"`
	} `json:"value"`
}

type executeInstruction struct {
	SwapAndAction *swapAndAction `json:"swap_and_action"`
	AddTx         *addTx         `json:"add_tx"`
}

// isBridgeDeposit reports whether the instruction is a bridge deposit.
func isBridgeDeposit(instruction jsoniter.RawMessage) bool {
	var decoded executeInstruction
	if err := json.Unmarshal(instruction, &decoded); err != nil {
		return false
	}
	return decoded.AddTx != nil && decoded.AddTx.Value.TxType == "deposit"
}
