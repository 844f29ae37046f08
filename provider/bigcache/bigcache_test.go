package bigcache

import (
	"bytes"
	"context"
	"testing"
)

func TestBigcacheRoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })

	if _, ok, err := p.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}

	want := []byte("SQRL\x01payload")
	ok, err := p.Set(ctx, "k", want, 1, 0)
	if err != nil || !ok {
		t.Fatalf("set: ok=%v err=%v", ok, err)
	}
	got, ok, err := p.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("bytes changed: got %q want %q", got, want)
	}

	if err := p.Del(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatal("expected miss after delete")
	}
}
