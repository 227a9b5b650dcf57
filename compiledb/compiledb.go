// Package compiledb reads the clang-style compilation database that
// enumerates translation units and the flags they were built with.
package compiledb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// DatabaseFile is the well-known name build systems emit into the build
// directory.
const DatabaseFile = "compile_commands.json"

// Command describes one translation unit: the directory the compiler ran in,
// the source file, and the full argument vector.
type Command struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments"`

	// Some generators emit a single shell string instead of an argv.
	CommandLine string `json:"command"`
}

// Argv returns the argument vector, splitting CommandLine when the database
// used the shell-string form.
func (c *Command) Argv() []string {
	if len(c.Arguments) > 0 {
		return c.Arguments
	}
	return strings.Fields(c.CommandLine)
}

// FullPath resolves the source file against the compile directory.
func (c *Command) FullPath() string {
	if strings.HasPrefix(c.File, "/") {
		return c.File
	}
	return c.Directory + "/" + c.File
}

// Load reads the compilation database from dir. A missing or malformed
// database is a configuration error.
func Load(ctx context.Context, fs afs.Service, dir string) ([]Command, error) {
	URL := url.Join(dir, DatabaseFile)
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read compilation database %v: %w", URL, err)
	}
	var commands []Command
	if err := json.Unmarshal(data, &commands); err != nil {
		return nil, fmt.Errorf("failed to parse compilation database %v: %w", URL, err)
	}
	for i := range commands {
		if commands[i].File == "" {
			return nil, fmt.Errorf("compilation database %v: entry %d has no file", URL, i)
		}
	}
	return commands, nil
}
