// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// consoleInterviewer collects user input from the terminal. Prompts block
// until the user answers; there is no timeout.
type consoleInterviewer struct {
	in       *bufio.Reader
	out      io.Writer
	useColor bool
}

func newConsoleInterviewer() *consoleInterviewer {
	return &consoleInterviewer{
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		useColor: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (c *consoleInterviewer) colorize(s, color string) string {
	if !c.useColor {
		return s
	}
	return color + s + "\033[0m"
}

// Present prints content under a highlighted title.
func (c *consoleInterviewer) Present(title, content string) {
	fmt.Fprintf(c.out, "\n%s\n%s\n\n%s\n",
		c.colorize("== "+title+" ==", "\033[38;2;16;185;129m"),
		c.colorize(strings.Repeat("-", len(title)+6), "\033[90m"),
		content)
}

// Confirm asks a yes/no question, defaulting to yes on plain Enter.
func (c *consoleInterviewer) Confirm(ctx context.Context, prompt string) (bool, error) {
	answer, err := c.Line(ctx, prompt+" [Y/n]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Line reads one line of input.
func (c *consoleInterviewer) Line(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(c.out, "%s ", c.colorize(prompt, "\033[36m"))

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
