// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package modelclient

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeModel struct {
	closed bool
}

func (*fakeModel) Complete(ctx context.Context, messages []Message, tools []ToolDef, opts Options) (string, error) {
	return `{}`, nil
}
func (*fakeModel) Reset(ctx context.Context) error { return nil }
func (f *fakeModel) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func TestHandleFactoryCalledOnce(t *testing.T) {
	calls := 0
	handle := NewHandle(func(ctx context.Context) (Model, error) {
		calls++
		return &fakeModel{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, unlock, err := handle.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire() error: %v", err)
				return
			}
			unlock()
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected factory to be called exactly once, got %d calls", calls)
	}
}

func TestHandleFactoryErrorIsSticky(t *testing.T) {
	wantErr := errors.New("boom")
	handle := NewHandle(func(ctx context.Context) (Model, error) {
		return nil, wantErr
	})

	_, _, err := handle.Acquire(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected factory error to propagate, got %v", err)
	}

	_, _, err = handle.Acquire(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected factory error to remain sticky on retry, got %v", err)
	}
}

func TestHandleCloseInvokesModelClose(t *testing.T) {
	model := &fakeModel{}
	handle := NewHandle(func(ctx context.Context) (Model, error) {
		return model, nil
	})

	_, unlock, err := handle.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	unlock()

	if err := handle.Close(context.Background()); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !model.closed {
		t.Error("expected Close() to invoke the model's Close method")
	}
}

func TestHandleCloseBeforeAcquireIsNoop(t *testing.T) {
	handle := NewHandle(func(ctx context.Context) (Model, error) {
		return &fakeModel{}, nil
	})
	if err := handle.Close(context.Background()); err != nil {
		t.Errorf("expected Close() on an unacquired handle to be a no-op, got %v", err)
	}
}

func TestDefaultOptionsFixedValues(t *testing.T) {
	opts := DefaultOptions()
	if !opts.ForceTools {
		t.Error("expected ForceTools=true by default")
	}
	if opts.MaxTokens != 512 {
		t.Errorf("expected MaxTokens=512, got %d", opts.MaxTokens)
	}
	if opts.Temperature != nil {
		t.Error("expected Temperature to be unset by default")
	}
}
