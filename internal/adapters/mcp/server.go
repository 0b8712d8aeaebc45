package mcpadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/shelf-inspector/internal/core/ports"
	"github.com/kirillkom/shelf-inspector/internal/imaging"
)

const (
	serverName    = "shelf-inspector"
	serverVersion = "1.0.0"

	toolAnalyzeImage = "analyze_image"
	argImage         = "image_base64"
	argDebug         = "debug"
)

// NewServer exposes the analyzer as an MCP tool server.
func NewServer(analyzer ports.ImageAnalyzer) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))
	s.AddTool(analyzeImageTool(), analyzeImageHandler(analyzer))
	return s
}

func analyzeImageTool() mcp.Tool {
	return mcp.NewTool(toolAnalyzeImage,
		mcp.WithDescription("Identify a retail item in a photo and return its freshness grade or the product details printed on its label."),
		mcp.WithString(argImage,
			mcp.Required(),
			mcp.Description("JPEG, PNG, WebP, BMP or TIFF image, base64 encoded. A data URL prefix is accepted."),
		),
		mcp.WithBoolean(argDebug,
			mcp.Description("Include the identification result and chosen path."),
		),
	)
}

func analyzeImageHandler(analyzer ports.ImageAnalyzer) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		encoded, err := req.RequireString(argImage)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		raw, err := decodeImageArgument(encoded)
		if err != nil {
			return mcp.NewToolResultError("image_base64 is not valid base64: " + err.Error()), nil
		}

		img, err := imaging.DecodeBytes(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		analysis, err := analyzer.Analyze(ctx, img)
		if err != nil {
			slog.Error("mcp_analyze_failed", "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		var payload any = analysis.Response
		if req.GetBool(argDebug, false) {
			payload = analysis
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

func decodeImageArgument(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "data:") {
		if idx := strings.Index(value, ","); idx >= 0 {
			value = value[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(value)
}
