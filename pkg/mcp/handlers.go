package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maglevlabs/mast/pkg/merge"
	"github.com/maglevlabs/mast/pkg/migrate"
	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/split"
	"github.com/maglevlabs/mast/pkg/storage"
	"github.com/maglevlabs/mast/pkg/validate"
)

// HandleValidate implements the script_validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	s, errRes := loadScriptFile(path)
	if errRes != nil {
		return errRes, nil
	}

	strict, _ := strconv.ParseBool(stringArg(args, "strict"))
	var result validate.Result
	if strict {
		result = validate.CheckCompatibility(s)
	} else {
		result = validate.Script(s)
	}
	return jsonResult(result, !result.Valid), nil
}

// HandleMigrate implements the script_migrate MCP tool.
func HandleMigrate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	doc, err := storage.Load(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if doc.Format != script.FormatLegacy {
		return errorResult(fmt.Sprintf("%s is already step-based; nothing to migrate", path)), nil
	}

	migrated, err := migrate.Migrate(doc.Legacy)
	if err != nil {
		return errorResult(fmt.Sprintf("migrate: %s", err)), nil
	}
	check := migrate.ValidateMigration(doc.Legacy, migrated)

	out := stringArg(args, "out")
	if out == "" {
		out = deriveMigrateOut(path)
	}
	if err := storage.SaveScript(out, migrated, storage.SaveOptions{}); err != nil {
		return errorResult(err.Error()), nil
	}

	response := map[string]any{
		"out":          out,
		"steps":        len(migrated.Steps),
		"pool_actions": len(migrated.ActionPool),
		"valid":        check.Valid,
	}
	if len(check.Errors) > 0 {
		response["errors"] = check.Errors
	}
	if len(check.Warnings) > 0 {
		response["warnings"] = check.Warnings
	}
	return jsonResult(response, !check.Valid), nil
}

// HandleMerge implements the script_merge MCP tool.
func HandleMerge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	stepIDs := splitCSV(stringArg(args, "step_ids"))
	if len(stepIDs) == 0 {
		return errorResult("step_ids argument is required"), nil
	}

	s, errRes := loadScriptFile(path)
	if errRes != nil {
		return errRes, nil
	}

	opts := merge.Options{
		Description:    stringArg(args, "description"),
		ExpectedResult: stringArg(args, "expected_result"),
	}

	preview, err := merge.PreviewMerged(s, stepIDs, opts)
	if err != nil {
		return errorResult(fmt.Sprintf("merge: %s", err)), nil
	}

	if dry, _ := strconv.ParseBool(stringArg(args, "dry_run")); dry {
		return jsonResult(preview, false), nil
	}

	next, err := merge.Merge(s, stepIDs, opts)
	if err != nil {
		return errorResult(fmt.Sprintf("merge: %s", err)), nil
	}

	out := outPath(args, path)
	if err := storage.SaveScript(out, next, storage.SaveOptions{}); err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"merged_step": preview.StepID,
		"action_ids":  preview.ActionIDs,
		"steps":       len(next.Steps),
		"out":         out,
	}, false), nil
}

// HandleSplit implements the script_split MCP tool.
func HandleSplit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	stepID := stringArg(args, "step_id")
	if stepID == "" {
		return errorResult("step_id argument is required"), nil
	}

	var specs []split.Spec
	if err := json.Unmarshal([]byte(stringArg(args, "splits")), &specs); err != nil {
		return errorResult(fmt.Sprintf("splits argument is not a valid JSON array: %s", err)), nil
	}

	s, errRes := loadScriptFile(path)
	if errRes != nil {
		return errRes, nil
	}

	request := split.Request{StepID: stepID, Splits: specs}

	if dry, _ := strconv.ParseBool(stringArg(args, "dry_run")); dry {
		preview, err := split.PreviewSplit(s, request)
		if err != nil {
			return errorResult(fmt.Sprintf("split: %s", err)), nil
		}
		return jsonResult(preview, false), nil
	}

	res, err := split.Split(s, request)
	if err != nil {
		return errorResult(fmt.Sprintf("split: %s", err)), nil
	}

	out := outPath(args, path)
	if err := storage.SaveScript(out, res.Script, storage.SaveOptions{}); err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"new_step_ids": res.NewStepIDs,
		"steps":        len(res.Script.Steps),
		"out":          out,
	}, false), nil
}

// HandleSplitSuggest implements the script_split_suggest MCP tool.
func HandleSplitSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	stepID := stringArg(args, "step_id")
	if stepID == "" {
		return errorResult("step_id argument is required"), nil
	}

	parts := 2
	if raw := stringArg(args, "parts"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errorResult(fmt.Sprintf("parts argument must be a number: %s", err)), nil
		}
		parts = n
	}

	s, errRes := loadScriptFile(path)
	if errRes != nil {
		return errRes, nil
	}

	stats, err := split.Stat(s, stepID)
	if err != nil {
		return errorResult(fmt.Sprintf("split: %s", err)), nil
	}
	specs, err := split.Suggest(s, stepID, parts)
	if err != nil {
		return errorResult(fmt.Sprintf("split: %s", err)), nil
	}
	return jsonResult(map[string]any{
		"step_id": stepID,
		"stats":   stats,
		"splits":  specs,
	}, false), nil
}

// HandleUpdateAction implements the script_update_action MCP tool.
func HandleUpdateAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	actionID := stringArg(args, "action_id")
	if actionID == "" {
		return errorResult("action_id argument is required"), nil
	}

	var action script.Action
	if err := json.Unmarshal([]byte(stringArg(args, "action")), &action); err != nil {
		return errorResult(fmt.Sprintf("action argument is not a valid JSON object: %s", err)), nil
	}

	s, errRes := loadScriptFile(path)
	if errRes != nil {
		return errRes, nil
	}

	affected := script.StepsReferencingAction(s, actionID)
	affectedIDs := make([]string, len(affected))
	for i, st := range affected {
		affectedIDs[i] = st.ID
	}

	updated := script.UpdateActionInPool(s, actionID, action)

	out := outPath(args, path)
	if err := storage.SaveScript(out, updated, storage.SaveOptions{}); err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"action_id":      actionID,
		"affected_steps": affectedIDs,
		"shared":         len(affected) > 1,
		"out":            out,
	}, false), nil
}

// HandleInfo implements the script_info MCP tool. It accepts both formats
// so agents can probe a file before deciding to migrate.
func HandleInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	doc, err := storage.Load(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	if doc.Format == script.FormatLegacy {
		return jsonResult(map[string]any{
			"format":   "legacy",
			"version":  doc.Legacy.Version,
			"actions":  len(doc.Legacy.Actions),
			"platform": doc.Legacy.Metadata.Platform,
			"duration": doc.Legacy.Metadata.Duration,
			"hint":     "legacy recording; use script_migrate to convert",
		}, false), nil
	}

	s := doc.Script
	steps := make([]map[string]any, 0, len(s.Steps))
	for _, st := range script.SortedSteps(s) {
		steps = append(steps, map[string]any{
			"id":          st.ID,
			"order":       st.Order,
			"description": st.Description,
			"actions":     len(st.ActionIDs),
		})
	}

	referenced := make(map[string]bool)
	for _, st := range s.Steps {
		for _, id := range st.ActionIDs {
			referenced[id] = true
		}
	}
	orphans := 0
	for id := range s.ActionPool {
		if !referenced[id] {
			orphans++
		}
	}

	return jsonResult(map[string]any{
		"format":       "step",
		"title":        s.Meta.Title,
		"version":      s.Meta.Version,
		"platform":     s.Meta.Platform,
		"duration":     s.Meta.Duration,
		"steps":        steps,
		"pool_actions": len(s.ActionPool),
		"orphans":      orphans,
		"variables":    len(s.Variables),
	}, false), nil
}

// HandleAutoFix implements the script_autofix MCP tool.
func HandleAutoFix(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	s, errRes := loadScriptFile(path)
	if errRes != nil {
		return errRes, nil
	}

	fixed, fixes := validate.AutoFix(s)
	if len(fixes) == 0 {
		return jsonResult(map[string]any{"fixes": []validate.Fix{}, "out": path}, false), nil
	}

	out := outPath(args, path)
	if err := storage.SaveScript(out, fixed, storage.SaveOptions{}); err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"fixes": fixes,
		"out":   out,
	}, false), nil
}

// --- helpers ---

// loadScriptFile loads a step-based script, returning a ready error result
// for legacy or unreadable files.
func loadScriptFile(path string) (*script.TestScript, *mcp.CallToolResult) {
	doc, err := storage.Load(path)
	if err != nil {
		return nil, errorResult(err.Error())
	}
	if doc.Format == script.FormatLegacy {
		return nil, errorResult(fmt.Sprintf("%s is a legacy recording; use script_migrate first", path))
	}
	if doc.Script == nil {
		return nil, errorResult(fmt.Sprintf("%s is not a recognized script document", path))
	}
	return doc.Script, nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// outPath resolves the optional out argument, defaulting to in-place.
func outPath(args map[string]any, path string) string {
	if out := stringArg(args, "out"); out != "" {
		return out
	}
	return path
}

// deriveMigrateOut names the migrated copy next to the legacy input.
func deriveMigrateOut(path string) string {
	if strings.HasSuffix(path, ".json") {
		return strings.TrimSuffix(path, ".json") + ".script.json"
	}
	return path + ".script.json"
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func jsonResult(v any, isErr bool) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: isErr,
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
