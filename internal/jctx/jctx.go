// Package jctx persists ProjectContext: the per-workspace (mode?,
// scope?, project?) triple mutated only by explicit activation
// commands (spec §4.9).
package jctx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthropics/jin/internal/jinerr"
	"github.com/anthropics/jin/internal/layer"
	"github.com/anthropics/jin/internal/objstore"
)

const fileName = "context"

func path(stateDir string) string {
	return filepath.Join(stateDir, fileName)
}

// Load reads the persisted ProjectContext, returning the zero value
// (no mode/scope/project active) if none has been set yet.
func Load(stateDir string) (layer.Context, error) {
	data, err := os.ReadFile(path(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return layer.Context{}, nil
		}
		return layer.Context{}, jinerr.IO("read context", path(stateDir), err)
	}
	var ctx layer.Context
	if err := json.Unmarshal(data, &ctx); err != nil {
		return layer.Context{}, err
	}
	return ctx, nil
}

// Save atomically persists the ProjectContext.
func Save(stateDir string, ctx layer.Context) error {
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return err
	}
	if err := objstore.AtomicWriteFile(path(stateDir), data, 0644); err != nil {
		return jinerr.IO("write context", path(stateDir), err)
	}
	return nil
}

// Activate sets one component of the context. An empty layer (no ref
// yet committed for the requested mode/scope/project) is permitted —
// it simply contributes nothing until someone commits to it. Only
// repair flags a context pointing at a deleted layer.
func Activate(stateDir string, kind string, value string) (layer.Context, error) {
	ctx, err := Load(stateDir)
	if err != nil {
		return layer.Context{}, err
	}
	switch kind {
	case "mode":
		ctx.Mode = value
	case "scope":
		ctx.Scope = value
	case "project":
		ctx.Project = value
	default:
		return layer.Context{}, fmt.Errorf("unknown context component: %s", kind)
	}
	if err := Save(stateDir, ctx); err != nil {
		return layer.Context{}, err
	}
	return ctx, nil
}

// Deactivate clears one component of the context by activating it with
// an empty value.
func Deactivate(stateDir string, kind string) (layer.Context, error) {
	return Activate(stateDir, kind, "")
}
