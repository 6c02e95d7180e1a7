package audit

import "encoding/json"

// encodeParams serialises a request for the audit trail. Marshal failures
// degrade to an empty object: audit never fails a tool call.
func encodeParams(req any) string {
	if req == nil {
		return "{}"
	}
	data, err := json.Marshal(req)
	if err != nil {
		return "{}"
	}
	return string(data)
}
