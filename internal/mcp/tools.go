package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/langroutes/internal/ops"
)

// toolDef builds a tool definition for the registered name.
type toolDef func(name string) mcp.Tool

const languageDescription = "Language name or code, e.g. \"portuguese\" or \"por\". Case-insensitive."

func listToolDef(name string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription("List every country where a language is spoken, sorted by name."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("language", mcp.Required(), mcp.Description(languageDescription)),
	)
}

func topToolDef(name string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription("Rank the countries speaking a language by population or area, largest first."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("language", mcp.Required(), mcp.Description(languageDescription)),
		mcp.WithString("field",
			mcp.Description("Ranking field. Default: population."),
			mcp.Enum("population", "area"),
		),
		mcp.WithNumber("n",
			mcp.Description("How many countries to return. Default: 10."),
			mcp.Min(0),
			mcp.Max(ops.MaxTopN),
		),
	)
}

func detailToolDef(name string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription("Show one country's details. The name must match a countries_list entry exactly."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("language", mcp.Required(), mcp.Description(languageDescription)),
		mcp.WithString("name", mcp.Required(), mcp.Description("Exact, case-sensitive country name.")),
	)
}

func exportToolDef(name string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription("Export the countries speaking a language to a JSONL or xlsx file."),
		mcp.WithString("language", mcp.Required(), mcp.Description(languageDescription)),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Absolute destination path ending in .jsonl or .xlsx, directly inside ~/.langroutes/exports or a configured allowed_paths directory."),
		),
		mcp.WithString("format",
			mcp.Description("File format. Must match the path extension when given."),
			mcp.Enum(ops.FormatJSONL, ops.FormatXLSX),
		),
		mcp.WithNumber("top_n", mcp.Description("Rows on the xlsx ranking sheet. Default: 10."), mcp.Min(0)),
	)
}
