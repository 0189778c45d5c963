// Package mcpserver exposes the premium queries as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ougirez/premiums/internal/domain/dto"
	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/logger"
)

const serverName = "swisshealth-mcp-server"

type PremiumsService interface {
	LookupRegion(ctx context.Context, plz string) (*dto.RegionLookupResponse, error)
	Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error)
	Cheapest(ctx context.Context, req dto.CheapestRequest) (*dto.CheapestResponse, error)
	Timeline(ctx context.Context, req dto.TimelineRequest) (*dto.TimelineResponse, error)
	Inflation(ctx context.Context, req dto.InflationRequest) (*dto.InflationResponse, error)
	CompareYears(ctx context.Context, req dto.CompareYearsRequest) (*dto.CompareYearsResponse, error)
	Ranking(ctx context.Context, req dto.RankingRequest) (*dto.RankingResponse, error)
}

type Server struct {
	premiums PremiumsService
	mcp      *server.MCPServer
}

func NewServer(premiums PremiumsService, version string) *Server {
	s := &Server{
		premiums: premiums,
		mcp:      server.NewMCPServer(serverName, version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks until stdin is closed. Protocol errors go to errLog, never stdout.
func (s *Server) ServeStdio(errLog *log.Logger) error {
	return server.ServeStdio(s.mcp, server.WithErrorLogger(errLog))
}

// handler adapts a typed query to a tool handler: the response is returned as JSON
// text and request errors become tool errors.
func handler[T any](name string, query func(ctx context.Context, req mcp.CallToolRequest) (T, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = logger.With(ctx, "tool", name)

		resp, err := query(ctx, req)
		if err != nil {
			return toolError(ctx, err), nil
		}

		data, err := sonic.ConfigStd.MarshalIndent(resp, "", "  ")
		if err != nil {
			logger.Errorf(ctx, "sonic.MarshalIndent: %v", err)
			return mcp.NewToolResultError("Fehler: Antwort konnte nicht serialisiert werden"), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func toolError(ctx context.Context, err error) *mcp.CallToolResult {
	var ce *constants.CodedError
	if !errors.As(err, &ce) {
		logger.Errorf(ctx, "tool failed: %v", err)
		ce = constants.ErrInternal
	}

	text := fmt.Sprintf("Fehler: %s (%s)", ce.Message(), ce.ErrorCode())
	if ce.Suggestion() != "" {
		text += ". " + ce.Suggestion()
	}
	return mcp.NewToolResultError(text)
}

// arg reads an argument as the query string form the services parse. Clients send
// numbers as JSON numbers or strings and year lists as strings or arrays.
func arg(req mcp.CallToolRequest, key string) string {
	switch v := req.GetArguments()[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}

func argOr(req mcp.CallToolRequest, key, def string) string {
	if v := arg(req, key); v != "" {
		return v
	}
	return def
}
