package lcd

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Coin is one (denomination, raw amount) pair.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Attribute is one key/value entry of an event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is a typed list of attributes attached to a transaction.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Attr returns the value of the named attribute and whether it was present.
// The last occurrence wins when a key repeats.
func (e Event) Attr(key string) (string, bool) {
	value := ""
	found := false
	for _, attr := range e.Attributes {
		if attr.Key == key {
			value = attr.Value
			found = true
		}
	}
	return value, found
}

// Fee is the declared transaction fee.
type Fee struct {
	Amount   []Coin `json:"amount"`
	GasLimit string `json:"gas_limit"`
}

// AuthInfo carries signer metadata; only the fee is consumed here.
type AuthInfo struct {
	Fee Fee `json:"fee"`
}

// Body holds the transaction messages. Messages stay raw: each is a tagged
// variant decoded by the classifier once its "@type" is known.
type Body struct {
	Messages []jsoniter.RawMessage `json:"messages"`
	Memo     string                `json:"memo"`
}

// Tx is the decoded transaction envelope.
type Tx struct {
	Body     Body     `json:"body"`
	AuthInfo AuthInfo `json:"auth_info"`
}

// TxResponse is one executed transaction as returned by the LCD API.
type TxResponse struct {
	Height    string    `json:"height"`
	Txhash    string    `json:"txhash"`
	Codespace string    `json:"codespace"`
	Code      int       `json:"code"`
	RawLog    string    `json:"raw_log"`
	Timestamp time.Time `json:"timestamp"`
	Tx        Tx        `json:"tx"`
	Events    []Event   `json:"events"`
}

// Failed reports whether the transaction errored on-chain.
func (t TxResponse) Failed() bool {
	return t.Code != 0
}

type pagination struct {
	NextKey string `json:"next_key"`
	Total   string `json:"total"`
}

type txsPage struct {
	TxResponses []TxResponse `json:"tx_responses"`
	Pagination  pagination   `json:"pagination"`
	Total       string       `json:"total"`
}

type txByHashResponse struct {
	TxResponse TxResponse `json:"tx_response"`
}

type contractInfoResponse struct {
	Address      string `json:"address"`
	ContractInfo struct {
		CodeID  string `json:"code_id"`
		Creator string `json:"creator"`
		Label   string `json:"label"`
	} `json:"contract_info"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
