package validation

// ShippingQuoteRequest describes POST /shipping-quotes bodies. Variant id
// format is checked separately so it can report INVALID_VARIANT_ID.
var ShippingQuoteRequest = MustCompile(`{
  "type": "object",
  "required": ["recipient", "items"],
  "properties": {
    "recipient": {
      "type": "object",
      "required": ["country_code", "zip"],
      "properties": {
        "country_code": {"type": "string", "minLength": 1},
        "zip": {"type": "string", "minLength": 1},
        "city": {"type": "string"},
        "state_code": {"type": "string"}
      }
    },
    "items": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["printful_variant_id", "quantity"],
        "properties": {
          "printful_variant_id": {"type": ["string", "integer"]},
          "quantity": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`)

// ResolveOrderVariantsInput describes the resolve-order-variants job variables.
var ResolveOrderVariantsInput = MustCompile(`{
  "type": "object",
  "required": ["orderId", "items"],
  "properties": {
    "orderId": {"type": "string", "minLength": 1},
    "items": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["descriptor"],
        "properties": {
          "descriptor": {
            "oneOf": [
              {"type": "string", "minLength": 1},
              {
                "type": "object",
                "required": ["productType"],
                "properties": {
                  "productType": {"type": "string"},
                  "size": {"type": "string"},
                  "color": {"type": "string"}
                }
              }
            ]
          },
          "quantity": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`)
