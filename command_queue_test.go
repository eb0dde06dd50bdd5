package ggedit

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/ggedit/internal/soft"
)

func TestCommandQueueOrder(t *testing.T) {
	var q CommandQueue
	var got []int
	for i := range 5 {
		q.Push(func(*Renderer) error {
			got = append(got, i)
			return nil
		})
	}
	q.Push(nil)
	if q.Len() != 5 {
		t.Fatalf("Len = %d, want 5", q.Len())
	}
	if errs := q.drain(nil); len(errs) != 0 {
		t.Errorf("drain errors = %v", errs)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("ran %v, want push order", got)
		}
	}
}

func TestCommandQueueConcurrentPush(t *testing.T) {
	var q CommandQueue
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Push(func(*Renderer) error { return nil })
		}()
	}
	wg.Wait()
	if q.Len() != 20 {
		t.Errorf("Len = %d, want 20", q.Len())
	}
}

func TestUploadImageCommand(t *testing.T) {
	r := newTestRenderer(t, 8, 8, "#000000", soft.New())
	tex := r.NewTexture("pending", Sampling{})
	r.Commands().Push(UploadImage(tex, solidImage(4, 2, red)))
	r.Commands().Push(UploadImage(nil, solidImage(1, 1, red)))

	f, err := r.BeginFrame()
	if err != nil {
		t.Fatal(err)
	}
	f.Discard()
	if tex.Width() != 4 || tex.Height() != 2 || tex.Generation() != 1 {
		t.Errorf("texture %dx%d gen %d, want 4x2 gen 1", tex.Width(), tex.Height(), tex.Generation())
	}

	r.Commands().Push(UploadImage(nil, solidImage(1, 1, red)))
	status, err := r.RenderFrame()
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(status.Err(), ErrNoTexture) {
		t.Errorf("status errors = %v, want ErrNoTexture", status.Err())
	}
}
