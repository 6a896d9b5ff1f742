package runner

import (
	"context"
	"fmt"
	"strings"
)

// Response is one scripted reply for a Fake runner.
type Response struct {
	Out string
	Err error
}

// Call records one invocation the Fake received.
type Call struct {
	Name  string
	Args  []string
	Stdin string
}

// Fake replays a script of responses in order and records every call. When
// the script runs out it keeps answering with empty output, which keeps
// happy-path tests short.
type Fake struct {
	Script []Response
	Calls  []Call
}

var _ Runner = &Fake{}

func (f *Fake) Run(ctx context.Context, name string, args ...string) (string, error) {
	return f.next(Call{Name: name, Args: args})
}

func (f *Fake) RunStdin(ctx context.Context, stdin, name string, args ...string) (string, error) {
	return f.next(Call{Name: name, Args: args, Stdin: stdin})
}

func (f *Fake) next(call Call) (string, error) {
	f.Calls = append(f.Calls, call)
	if len(f.Calls) > len(f.Script) {
		return "", nil
	}
	resp := f.Script[len(f.Calls)-1]
	return resp.Out, resp.Err
}

// CommandLines renders recorded calls one per line for easy assertions.
func (f *Fake) CommandLines() []string {
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
	}
	return lines
}

// CallContaining returns the first recorded call whose argv contains every
// given fragment, or an error naming what was missing.
func (f *Fake) CallContaining(fragments ...string) (Call, error) {
	for _, call := range f.Calls {
		line := call.Name + " " + strings.Join(call.Args, " ")
		matched := true
		for _, frag := range fragments {
			if !strings.Contains(line, frag) {
				matched = false
				break
			}
		}
		if matched {
			return call, nil
		}
	}
	return Call{}, fmt.Errorf("no recorded call containing %v", fragments)
}
