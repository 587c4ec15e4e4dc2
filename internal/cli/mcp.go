package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"tokentrim/internal/adapter/analyzer"
	"tokentrim/internal/adapter/lossless"
	"tokentrim/internal/domain"
	"tokentrim/internal/usecase"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing compression tools over stdio",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	svc := newServices(cfg, nil)
	svc.enableReportCache(cfg)
	return mcpserver.ServeStdio(newMCPServer(svc))
}

func newMCPServer(svc *services) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("tokentrim", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(compressSourceTool(), makeCompressHandler(svc))
	s.AddTool(expandHashesTool(), makeExpandHandler())
	s.AddTool(estimateTokensTool(), makeEstimateHandler(svc))
	s.AddTool(losslessEncodeTool(), makeLosslessEncodeHandler(svc))
	s.AddTool(losslessDecodeTool(), makeLosslessDecodeHandler(svc))

	return s
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func compressSourceTool() mcp.Tool {
	return mcp.NewTool("compress_source",
		mcp.WithDescription("Compress source code for an LLM prompt. Returns one level of the code, or the full report as JSON when level is 'report'."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Source text to compress"),
		),
		mcp.WithString("filename",
			mcp.Description("File name, used to detect the language"),
		),
		mcp.WithString("language",
			mcp.Description("Language override, e.g. 'Python' or 'Go'"),
		),
		mcp.WithString("level",
			mcp.Description("best (default), minified, skeleton, architecture, compressed, preamble or report"),
		),
		mcp.WithBoolean("aggressive",
			mcp.Description("Collapse indentation and every blank line"),
		),
	)
}

func expandHashesTool() mcp.Tool {
	return mcp.NewTool("expand_hashes",
		mcp.WithDescription("Replace #hash references in compressed code with the patterns they stand for."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Compressed code containing hash references"),
		),
		mcp.WithString("decode_map",
			mcp.Required(),
			mcp.Description(`JSON object mapping keys to patterns, e.g. {"#a1b2c3": "..."}`),
		),
	)
}

func estimateTokensTool() mcp.Tool {
	return mcp.NewTool("estimate_tokens",
		mcp.WithDescription("Estimate the token count of a text."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Text to estimate"),
		),
		mcp.WithString("filename",
			mcp.Description("Optional file name, used to report the language"),
		),
	)
}

func losslessEncodeTool() mcp.Tool {
	return mcp.NewTool("lossless_encode",
		mcp.WithDescription("Encode a file into a lossless bundle envelope that restores it byte for byte."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Text to encode"),
		),
		mcp.WithString("filename",
			mcp.Description("File name stored in the bundle"),
		),
	)
}

func losslessDecodeTool() mcp.Tool {
	return mcp.NewTool("lossless_decode",
		mcp.WithDescription("Restore the files of a lossless bundle (JSON, envelope or annotated form)."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("bundle",
			mcp.Required(),
			mcp.Description("Bundle text"),
		),
	)
}

// --- Handler factories ---

func makeCompressHandler(svc *services) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content := req.GetString("content", "")
		if content == "" {
			return mcp.NewToolResultError("content is required"), nil
		}
		filename := req.GetString("filename", "input")
		level := req.GetString("level", "best")

		report := svc.compressReport(ctx, usecase.CompressInput{
			Text:       content,
			Filename:   filename,
			Language:   req.GetString("language", ""),
			Aggressive: req.GetBool("aggressive", false),
		})

		if level == "report" {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("marshal report failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(data)), nil
		}

		text, err := levelContent(report, level)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func makeExpandHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code := req.GetString("code", "")
		var decodeMap map[string]string
		if err := json.Unmarshal([]byte(req.GetString("decode_map", "{}")), &decodeMap); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("decode_map is not a JSON object of strings: %v", err)), nil
		}
		return mcp.NewToolResultText(usecase.ExpandHashReferences(code, decodeMap)), nil
	}
}

func makeEstimateHandler(svc *services) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filename := req.GetString("filename", "")
		a := svc.analyze.AnalyzeFile(filename, []byte(req.GetString("content", "")))
		return mcp.NewToolResultText(fmt.Sprintf("%d tokens (%s, %d bytes)", a.TokenEstimate, a.Language, a.FileSize)), nil
	}
}

func makeLosslessEncodeHandler(svc *services) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filename := req.GetString("filename", "input")
		bundle := svc.lossless.Encode([]domain.SourceFile{{
			Name:     filename,
			Language: analyzer.DetectLanguage(filename),
			Text:     req.GetString("content", ""),
		}}, time.Now())

		env, err := lossless.EncodeEnvelope(bundle)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(env), nil
	}
}

func makeLosslessDecodeHandler(svc *services) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw := req.GetString("bundle", "")
		if strings.TrimSpace(raw) == "" {
			return mcp.NewToolResultError("bundle is required"), nil
		}
		bundle, err := lossless.ParseBundle([]byte(raw))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse bundle failed: %v", err)), nil
		}
		files, err := svc.lossless.Decode(bundle)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("decode failed: %v", err)), nil
		}

		var sb strings.Builder
		if err := printSourceFiles(&sb, files); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
