package middlewares

// Keys used with gin's per-request store.
const (
	CtxRequestID = "request_id"
)
