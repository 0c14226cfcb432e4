package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/borgmon/clockbar/pkg/alarm"
)

// terminalPrompter asks on a line-oriented terminal. An empty answer or end
// of input cancels.
type terminalPrompter struct {
	out   io.Writer
	lines chan string
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	p := &terminalPrompter{out: out, lines: make(chan string)}
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
	}()
	return p
}

func (p *terminalPrompter) readLine(ctx context.Context) (string, bool, error) {
	select {
	case line, ok := <-p.lines:
		return strings.TrimSpace(line), ok, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// InputTime implements alarm.Prompter
func (p *terminalPrompter) InputTime(ctx context.Context, in alarm.TimeInput) (string, bool, error) {
	for {
		if in.Initial != "" {
			fmt.Fprintf(p.out, "%s [%s]: ", in.Prompt, in.Initial)
		} else {
			fmt.Fprintf(p.out, "%s (%s): ", in.Prompt, in.Placeholder)
		}

		line, ok, err := p.readLine(ctx)
		if err != nil || !ok || line == "" {
			return "", false, err
		}
		if in.Validate != nil {
			if verr := in.Validate(line); verr != nil {
				fmt.Fprintln(p.out, verr)
				continue
			}
		}
		return line, true, nil
	}
}

// Pick implements alarm.Prompter
func (p *terminalPrompter) Pick(ctx context.Context, title string, choices []alarm.Choice) (int, bool, error) {
	fmt.Fprintln(p.out, title)
	for i, c := range choices {
		fmt.Fprintf(p.out, "  %d) %s", i+1, c.Label)
		if c.Detail != "" {
			fmt.Fprintf(p.out, "  %s", c.Detail)
		}
		fmt.Fprintln(p.out)
	}

	for {
		fmt.Fprint(p.out, "> ")
		line, ok, err := p.readLine(ctx)
		if err != nil || !ok || line == "" {
			return 0, false, err
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(choices) {
			fmt.Fprintf(p.out, "1-%d\n", len(choices))
			continue
		}
		return n - 1, true, nil
	}
}

// Confirm implements alarm.Prompter
func (p *terminalPrompter) Confirm(ctx context.Context, message, confirmLabel, cancelLabel string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y = %s / N = %s]: ", message, confirmLabel, cancelLabel)
	line, ok, err := p.readLine(ctx)
	if err != nil || !ok {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes", strings.ToLower(confirmLabel):
		return true, nil
	}
	return false, nil
}

// Info implements alarm.Prompter
func (p *terminalPrompter) Info(message string) {
	fmt.Fprintln(p.out, message)
}

// Warn implements alarm.Prompter
func (p *terminalPrompter) Warn(message string) {
	fmt.Fprintln(p.out, "! "+message)
}
