package rpc

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// AccountInfo holds an account's on-chain state. Data comes back as a
// two-element array: the base64 payload and the encoding name.
type AccountInfo struct {
	Data       []string `json:"data"`
	Owner      string   `json:"owner"`
	Executable bool     `json:"executable"`
	Lamports   uint64   `json:"lamports"`
}

// AccountInfoResult wraps the value with its slot context
type AccountInfoResult struct {
	Value *AccountInfo `json:"value"`
}

// AccountInfoResponse is the response from getAccountInfo. A nil Value means
// the account does not exist.
type AccountInfoResponse struct {
	Result *AccountInfoResult `json:"result"`
	Error  *RPCError          `json:"error"`
}
