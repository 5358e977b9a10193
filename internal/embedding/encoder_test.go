// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package embedding

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Normalize([3 4]) = %v, want [0.6 0.8]", v)
	}

	zero := []float32{0, 0}
	Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("Normalize(zero) = %v", zero)
	}
}

func TestCheckShape(t *testing.T) {
	if err := CheckShape([][]float32{{1, 2}, {3, 4}}, 2, 2); err != nil {
		t.Errorf("CheckShape() error = %v", err)
	}
	if err := CheckShape([][]float32{{1, 2}}, 2, 2); !errors.Is(err, ErrBadResponse) {
		t.Errorf("short result error = %v, want ErrBadResponse", err)
	}
	if err := CheckShape([][]float32{{1, 2}, {3}}, 2, 2); !errors.Is(err, ErrBadResponse) {
		t.Errorf("ragged result error = %v, want ErrBadResponse", err)
	}
}

func TestHashingEncoder(t *testing.T) {
	enc, err := NewHashingEncoder(64, true)
	if err != nil {
		t.Fatal(err)
	}
	if enc.Dimension() != 64 || enc.Model() != "hashing-64" {
		t.Errorf("Dimension/Model = %d/%q", enc.Dimension(), enc.Model())
	}

	texts := []string{"Dune. A desert planet", "dune a DESERT planet!", "Emma. A comedy of manners", ""}
	got, err := enc.Encode(context.Background(), texts)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := CheckShape(got, len(texts), 64); err != nil {
		t.Fatal(err)
	}

	// Case and punctuation do not change the tokens.
	if !reflect.DeepEqual(got[0], got[1]) {
		t.Error("equivalent texts produced different vectors")
	}
	if reflect.DeepEqual(got[0], got[2]) {
		t.Error("different texts produced identical vectors")
	}
	if n := norm(got[0]); math.Abs(n-1) > 1e-5 {
		t.Errorf("norm = %v, want 1", n)
	}
	if n := norm(got[3]); n != 0 {
		t.Errorf("empty text norm = %v, want 0", n)
	}

	again, _ := enc.Encode(context.Background(), texts[:1])
	if !reflect.DeepEqual(again[0], got[0]) {
		t.Error("Encode() is not deterministic")
	}
}

func TestHashingEncoder_InvalidDimension(t *testing.T) {
	if _, err := NewHashingEncoder(0, false); err == nil {
		t.Error("NewHashingEncoder(0) returned nil error")
	}
}

func TestHashingEncoder_Canceled(t *testing.T) {
	enc, _ := NewHashingEncoder(8, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := enc.Encode(ctx, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Encode() error = %v, want context.Canceled", err)
	}
}

func TestLoader_OnceAndCached(t *testing.T) {
	calls := 0
	l := NewLoaderFunc(func(context.Context) (Encoder, error) {
		calls++
		return NewHashingEncoder(4, false)
	})
	if l.Loaded() || l.Loads() != 0 {
		t.Fatal("loader reports a load before Get")
	}

	var wg sync.WaitGroup
	encoders := make([]Encoder, 16)
	for i := range encoders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			enc, err := l.Get(context.Background())
			if err != nil {
				t.Errorf("Get() error = %v", err)
			}
			encoders[i] = enc
		}(i)
	}
	wg.Wait()

	if calls != 1 || l.Loads() != 1 {
		t.Errorf("factory ran %d times, Loads() = %d, want 1", calls, l.Loads())
	}
	for _, enc := range encoders[1:] {
		if enc != encoders[0] {
			t.Fatal("Get() returned different encoders")
		}
	}
}

func TestLoader_CachesFailure(t *testing.T) {
	boom := errors.New("weights missing")
	calls := 0
	l := NewLoaderFunc(func(context.Context) (Encoder, error) {
		calls++
		return nil, boom
	})

	for i := 0; i < 3; i++ {
		if _, err := l.Get(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("Get() error = %v, want %v", err, boom)
		}
	}
	if calls != 1 {
		t.Errorf("factory ran %d times, want 1", calls)
	}
}

func TestNewLoader_Providers(t *testing.T) {
	l := NewLoader(Config{Provider: ProviderHashing, Dimension: 16})
	enc, err := l.Get(context.Background())
	if err != nil {
		t.Fatalf("hashing Get() error = %v", err)
	}
	if enc.Dimension() != 16 {
		t.Errorf("Dimension() = %d, want 16", enc.Dimension())
	}

	bad := NewLoader(Config{Provider: "word2vec"})
	if _, err := bad.Get(context.Background()); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("unknown provider error = %v, want ErrUnknownProvider", err)
	}
}
