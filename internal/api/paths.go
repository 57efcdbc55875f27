package api

// GJSON paths read from backend JSON bodies
const (
	// Error bodies: {"detail": ...} from the backend, {"message": ...} from proxies
	PathDetail  = "detail"
	PathMessage = "message"
	// Validation failures carry a list of {"loc": [...], "msg": "..."}
	PathValidationMsg = "msg"

	// Health check body: {"ok": true}
	PathHealthOK = "ok"
)
