package mcpserver

import "encoding/json"

type requestEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type responseEnvelope struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id,omitempty"`
	Result  any            `json:"result,omitempty"`
	Error   *responseError `json:"error,omitempty"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type toolCallParameters struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type serverInfoPayload struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResultPayload struct {
	ProtocolVersion string            `json:"protocolVersion"`
	Capabilities    map[string]any    `json:"capabilities"`
	ServerInfo      serverInfoPayload `json:"serverInfo"`
}

type toolDescriptorPayload struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type toolListResultPayload struct {
	Tools []toolDescriptorPayload `json:"tools"`
}

type textContentPayload struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolCallResultPayload struct {
	Content []textContentPayload `json:"content"`
	IsError bool                 `json:"isError,omitempty"`
}
