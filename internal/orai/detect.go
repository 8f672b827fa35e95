package orai

import (
	"regexp"
	"strconv"
	"strings"

	"taxcsv/internal/lcd"
	"taxcsv/internal/report"
)

const transferEventType = "transfer"

// eventsForMessage scopes a transaction's events to one message. Events carry
// a msg_index attribute on multi-message transactions; matching on it keeps a
// transfer from being counted once per sibling message. Single-message
// transactions keep the whole-tx scan, msg_index or not.
func eventsForMessage(events []lcd.Event, msgIndex, msgCount int) []lcd.Event {
	if msgCount <= 1 {
		return events
	}
	want := strconv.Itoa(msgIndex)
	var scoped []lcd.Event
	for _, event := range events {
		if idx, ok := event.Attr("msg_index"); ok && idx == want {
			scoped = append(scoped, event)
		}
	}
	return scoped
}

// eventTransfer is one (recipient, sender, amount) triple recovered from a
// transfer event's attribute stream.
type eventTransfer struct {
	recipient string
	sender    string
	amountRaw string
}

// detectTransfers is the generic fallback for unrecognised messages: it
// scans raw transfer events for credits and debits of the acting address.
// When nothing involves the actor, a single pass-through row is emitted so
// the transaction still appears in the report.
func (p *Processor) detectTransfers(txCtx report.TxContext, actor string, events []lcd.Event, contractLabel string, exporter *report.Exporter) {
	emitted := 0

	for _, entry := range collectTransferEntries(events) {
		for _, coin := range parseCoins(entry.amountRaw) {
			amount, currency := p.registry.Normalize(coin.Amount, coin.Denom)

			switch {
			case entry.recipient == actor:
				row := report.NewTransferIn(txCtx, amount, currency)
				row.Comment = "Transfer from " + entry.sender
				exporter.Ingest(row)
				emitted++
			case entry.sender == actor:
				row := report.NewTransferOut(txCtx, amount, currency)
				row.Comment = "Transfer to " + entry.recipient
				exporter.Ingest(row)
				emitted++
			}
		}
	}

	if emitted == 0 {
		row := report.NewUnknown(txCtx)
		if contractLabel != "" {
			row.Comment = "Contract execution: " + contractLabel
		} else {
			row.Comment = "unrecognized transaction"
		}
		exporter.Ingest(row)
	}
}

// collectTransferEntries flattens transfer events into triples. Attribute
// order inside an event is recipient, sender, amount, repeating once per
// sub-transfer; the amount key closes a triple.
func collectTransferEntries(events []lcd.Event) []eventTransfer {
	var entries []eventTransfer
	for _, event := range events {
		if event.Type != transferEventType {
			continue
		}

		var current eventTransfer
		for _, attr := range event.Attributes {
			switch attr.Key {
			case "recipient":
				current.recipient = attr.Value
			case "sender":
				current.sender = attr.Value
			case "amount":
				current.amountRaw = attr.Value
				entries = append(entries, current)
				current = eventTransfer{}
			}
		}
	}
	return entries
}

var coinPattern = regexp.MustCompile(`^([0-9]+)(.+)$`)

// parseCoins splits an event amount string ("123denom1,456denom2") into
// coins. Malformed segments are skipped.
func parseCoins(raw string) []lcd.Coin {
	var coins []lcd.Coin
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		match := coinPattern.FindStringSubmatch(part)
		if match == nil {
			continue
		}
		coins = append(coins, lcd.Coin{Denom: match[2], Amount: match[1]})
	}
	return coins
}
