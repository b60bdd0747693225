package ledger

import "go.opentelemetry.io/otel/attribute"

const (
	outcomeKey      = attribute.Key("ledger.outcome")
	accountKey      = attribute.Key("ledger.account_number")
	counterpartyKey = attribute.Key("ledger.counterparty_account_number")
	amountKey       = attribute.Key("ledger.amount_minor")
	referenceKey    = attribute.Key("ledger.reference_id")
	goalKey         = attribute.Key("ledger.goal_id")
)
