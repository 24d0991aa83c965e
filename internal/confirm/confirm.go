// Package confirm implements the two-step protocol for destructive actions: describe the action as an
// [Intent], let a [Confirmer] decide, and only then execute it.
package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrDeclined is returned when the user refuses a destructive action.
var ErrDeclined = errors.New("action declined")

// Intent describes a destructive action before it runs.
type Intent struct {
	Action string // e.g. "Delete playlist"
	Target string // e.g. `"Road Trip"`
}

// Prompt is the question shown to the user.
func (i Intent) Prompt() string {
	if i.Target == "" {
		return i.Action + "?"
	}
	return fmt.Sprintf("%s %s?", i.Action, i.Target)
}

// Confirmer decides whether an intent may proceed.
type Confirmer interface {
	Confirm(ctx context.Context, intent Intent) (bool, error)
}

// ConfirmerFunc adapts a function to [Confirmer].
type ConfirmerFunc func(ctx context.Context, intent Intent) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, intent Intent) (bool, error) {
	return f(ctx, intent)
}

// Always returns a confirmer that answers approved without asking.
func Always(approved bool) Confirmer {
	return ConfirmerFunc(func(context.Context, Intent) (bool, error) { return approved, nil })
}

// Run asks c about intent and calls execute only when approved.
func Run(ctx context.Context, c Confirmer, intent Intent, execute func(context.Context) error) error {
	approved, err := c.Confirm(ctx, intent)
	if err != nil {
		return err
	}
	if !approved {
		return ErrDeclined
	}
	return execute(ctx)
}

// Request is a pending destructive action waiting for a decision, used by views that ask asynchronously.
type Request struct {
	Intent  Intent
	execute func(context.Context) error
	once    sync.Once
}

// NewRequest pairs intent with the action it guards.
func NewRequest(intent Intent, execute func(context.Context) error) *Request {
	return &Request{Intent: intent, execute: execute}
}

// Resolve runs the action when approved and returns [ErrDeclined] otherwise. Only the first call has any effect;
// later calls return nil.
func (r *Request) Resolve(ctx context.Context, approved bool) error {
	var err error
	ran := false
	r.once.Do(func() {
		ran = true
		if !approved {
			err = ErrDeclined
			return
		}
		err = r.execute(ctx)
	})
	if !ran {
		return nil
	}
	return err
}

// PromptConfirmer asks on a terminal: it writes the prompt to Out and reads a y/N answer from In.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptConfirmer) Confirm(ctx context.Context, intent Intent) (bool, error) {
	fmt.Fprintf(p.Out, "%s [y/N]: ", intent.Prompt())

	answer, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
