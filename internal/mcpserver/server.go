package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitmcp/internal/dispatch"
	"github.com/temirov/gitmcp/internal/toolspec"
	"github.com/temirov/gitmcp/internal/utils"
)

const (
	jsonRPCVersionConstant                   = "2.0"
	protocolVersionConstant                  = "2024-11-05"
	serverNameConstant                       = "git-server"
	serverVersionConstant                    = "0.1.0"
	initializeMethodNameConstant             = "initialize"
	toolListMethodNameConstant               = "tools/list"
	toolCallMethodNameConstant               = "tools/call"
	capabilitiesToolsKeyConstant             = "tools"
	parseErrorCodeConstant                   = -32700
	unknownMethodErrorCodeConstant           = -32000
	parseErrorMessageConstant                = "Parse error"
	unknownMethodMessageTemplateConstant     = "Unknown method: %s"
	textContentTypeConstant                  = "text"
	maximumLineSizeBytesConstant             = 1024 * 1024
	serverLoggerNotConfiguredMessageConstant = "logger not configured"
	dispatcherNotConfiguredMessageConstant   = "tool dispatcher not configured"
	inputStreamNotConfiguredMessageConstant  = "input stream not configured"
	outputStreamNotConfiguredMessageConstant = "output stream not configured"
	responseWriteErrorTemplateConstant       = "unable to write response: %w"
	requestMethodLogFieldConstant            = "method"
	servingStartedMessageConstant            = "Serving protocol requests"
	requestReceivedMessageConstant           = "Request received"
	malformedLineMessageConstant             = "Malformed request line"
)

// ErrLoggerNotConfigured indicates the server was constructed without a logger.
var ErrLoggerNotConfigured = errors.New(serverLoggerNotConfiguredMessageConstant)

// ErrDispatcherNotConfigured indicates the server was constructed without a tool dispatcher.
var ErrDispatcherNotConfigured = errors.New(dispatcherNotConfiguredMessageConstant)

// ErrInputNotConfigured indicates the server was constructed without an input stream.
var ErrInputNotConfigured = errors.New(inputStreamNotConfiguredMessageConstant)

// ErrOutputNotConfigured indicates the server was constructed without an output stream.
var ErrOutputNotConfigured = errors.New(outputStreamNotConfiguredMessageConstant)

// ToolDispatcher routes one tool invocation to its repository operation.
type ToolDispatcher interface {
	Dispatch(executionContext context.Context, toolName string, arguments map[string]any) dispatch.Result
}

// ServerDependencies carries the collaborators a Server requires.
type ServerDependencies struct {
	Logger     *zap.Logger
	Dispatcher ToolDispatcher
	Input      io.Reader
	Output     io.Writer
}

// Server reads newline-delimited JSON-RPC requests and writes one response line per request.
type Server struct {
	logger     *zap.Logger
	dispatcher ToolDispatcher
	input      io.Reader
	output     io.Writer
}

// NewServer constructs a Server and validates its dependencies.
func NewServer(dependencies ServerDependencies) (*Server, error) {
	if dependencies.Logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if dependencies.Dispatcher == nil {
		return nil, ErrDispatcherNotConfigured
	}
	if dependencies.Input == nil {
		return nil, ErrInputNotConfigured
	}
	if dependencies.Output == nil {
		return nil, ErrOutputNotConfigured
	}

	return &Server{
		logger:     dependencies.Logger,
		dispatcher: dependencies.Dispatcher,
		input:      dependencies.Input,
		output:     utils.NewFlushingWriter(dependencies.Output),
	}, nil
}

// Serve processes request lines until the input stream ends or the context is canceled.
func (server *Server) Serve(executionContext context.Context) error {
	server.logger.Info(servingStartedMessageConstant)

	lineScanner := bufio.NewScanner(server.input)
	lineScanner.Buffer(make([]byte, 0, maximumLineSizeBytesConstant), maximumLineSizeBytesConstant)

	for lineScanner.Scan() {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}

		requestLine := strings.TrimSpace(lineScanner.Text())
		if len(requestLine) == 0 {
			continue
		}

		response := server.handleRequestLine(executionContext, requestLine)
		if writeError := server.writeResponse(response); writeError != nil {
			return writeError
		}
	}

	return lineScanner.Err()
}

func (server *Server) handleRequestLine(executionContext context.Context, requestLine string) responseEnvelope {
	request := requestEnvelope{}
	if parseError := json.Unmarshal([]byte(requestLine), &request); parseError != nil {
		server.logger.Warn(malformedLineMessageConstant, zap.Error(parseError))
		return responseEnvelope{
			JSONRPC: jsonRPCVersionConstant,
			Error:   &responseError{Code: parseErrorCodeConstant, Message: parseErrorMessageConstant},
		}
	}

	server.logger.Debug(requestReceivedMessageConstant, zap.String(requestMethodLogFieldConstant, request.Method))

	switch request.Method {
	case initializeMethodNameConstant:
		return responseEnvelope{
			JSONRPC: jsonRPCVersionConstant,
			ID:      request.ID,
			Result: initializeResultPayload{
				ProtocolVersion: protocolVersionConstant,
				Capabilities:    map[string]any{capabilitiesToolsKeyConstant: map[string]any{}},
				ServerInfo:      serverInfoPayload{Name: serverNameConstant, Version: serverVersionConstant},
			},
		}
	case toolListMethodNameConstant:
		return responseEnvelope{
			JSONRPC: jsonRPCVersionConstant,
			ID:      request.ID,
			Result:  buildToolListResult(),
		}
	case toolCallMethodNameConstant:
		return server.handleToolCall(executionContext, request)
	default:
		return responseEnvelope{
			JSONRPC: jsonRPCVersionConstant,
			ID:      request.ID,
			Error: &responseError{
				Code:    unknownMethodErrorCodeConstant,
				Message: fmt.Sprintf(unknownMethodMessageTemplateConstant, request.Method),
			},
		}
	}
}

func (server *Server) handleToolCall(executionContext context.Context, request requestEnvelope) responseEnvelope {
	callParameters := toolCallParameters{}
	if len(request.Params) > 0 {
		if parseError := json.Unmarshal(request.Params, &callParameters); parseError != nil {
			server.logger.Warn(malformedLineMessageConstant, zap.Error(parseError))
			return responseEnvelope{
				JSONRPC: jsonRPCVersionConstant,
				ID:      request.ID,
				Error:   &responseError{Code: parseErrorCodeConstant, Message: parseErrorMessageConstant},
			}
		}
	}

	if callParameters.Arguments == nil {
		callParameters.Arguments = map[string]any{}
	}

	invocationResult := server.dispatcher.Dispatch(executionContext, callParameters.Name, callParameters.Arguments)

	return responseEnvelope{
		JSONRPC: jsonRPCVersionConstant,
		ID:      request.ID,
		Result: toolCallResultPayload{
			Content: []textContentPayload{{Type: textContentTypeConstant, Text: invocationResult.Text}},
			IsError: invocationResult.IsError,
		},
	}
}

func buildToolListResult() toolListResultPayload {
	toolPayloads := []toolDescriptorPayload{}
	for _, descriptor := range toolspec.Registry() {
		toolPayloads = append(toolPayloads, toolDescriptorPayload{
			Name:        descriptor.Name,
			Description: descriptor.Description,
			InputSchema: descriptor.InputSchema(),
		})
	}
	return toolListResultPayload{Tools: toolPayloads}
}

func (server *Server) writeResponse(response responseEnvelope) error {
	encodedResponse, encodingError := json.Marshal(response)
	if encodingError != nil {
		return fmt.Errorf(responseWriteErrorTemplateConstant, encodingError)
	}

	encodedResponse = append(encodedResponse, '\n')
	if _, writeError := server.output.Write(encodedResponse); writeError != nil {
		return fmt.Errorf(responseWriteErrorTemplateConstant, writeError)
	}
	return nil
}
