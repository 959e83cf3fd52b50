package api

const impactSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "payment_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "hypothetical_payment": {
      "type": "object",
      "additionalProperties": false,
      "required": ["amount", "currency", "account_id", "entity"],
      "properties": {
        "payment_id": {"type": "string", "maxLength": 64},
        "amount": {"type": "number", "minimum": 0},
        "currency": {"type": "string", "pattern": "^[A-Z]{3}$"},
        "account_id": {"type": "string", "minLength": 1, "maxLength": 64},
        "entity": {"type": "string", "minLength": 1, "maxLength": 128},
        "beneficiary_name": {"type": "string", "maxLength": 255},
        "timestamp_utc": {"type": "string", "maxLength": 32},
        "direction": {"type": "string", "enum": ["IN", "OUT", "in", "out"]}
      }
    },
    "entity_filter": {"type": "string", "maxLength": 128},
    "currency_filter": {"type": "string", "pattern": "^[A-Z]{3}$"}
  },
  "oneOf": [
    {"required": ["payment_id"]},
    {"required": ["hypothetical_payment"]}
  ]
}`
