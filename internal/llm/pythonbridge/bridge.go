package pythonbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"BNBChain-Agent/internal/llm"
)

// Client runs a local script as the model. The script reads one JSON request
// from stdin and writes either {"content": "..."} or the parameters object
// itself to stdout.
type Client struct {
	pythonExec string
	scriptPath string
	workingDir string
}

// NewClient creates a script backed client.
func NewClient(pythonExec, scriptPath, workingDir string) (*Client, error) {
	if scriptPath == "" {
		return nil, fmt.Errorf("python script path is required")
	}
	if pythonExec == "" {
		pythonExec = "python3"
	}
	return &Client{
		pythonExec: pythonExec,
		scriptPath: scriptPath,
		workingDir: workingDir,
	}, nil
}

// Generate runs the script and returns its output.
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	payload := map[string]any{
		"action":      req.Action,
		"instruction": req.Instruction,
		"text":        req.Text,
		"account":     req.Account,
		"chain":       req.Chain,
		"timestamp":   time.Now().Unix(),
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	command := exec.CommandContext(ctx, c.pythonExec, c.scriptPath)
	if c.workingDir != "" {
		command.Dir = c.workingDir
	}
	command.Stdin = bytes.NewReader(encoded)

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("run python script: %v, stderr=%s", err, strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return nil, fmt.Errorf("python script produced no output")
	}
	var wrapped struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal([]byte(out), &wrapped); err == nil && wrapped.Content != nil {
		out = *wrapped.Content
	}
	return &llm.Response{Content: out, Model: filepath.Base(c.scriptPath)}, nil
}

// ResolveScriptPath joins a relative script path onto baseDir.
func ResolveScriptPath(baseDir, script string) string {
	if script == "" {
		return ""
	}
	if filepath.IsAbs(script) {
		return script
	}
	if baseDir == "" {
		return script
	}
	return filepath.Join(baseDir, script)
}
