package cache

import (
	"sync"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	m := New[string](time.Minute, time.Minute)
	m.Set("a", "1", 0)

	v, ok := m.Get("a")
	if !ok || v != "1" {
		t.Fatalf("expected 1, got %q (found=%v)", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("expected miss")
	}
}

func TestMemory_Expiry(t *testing.T) {
	m := New[int](time.Minute, time.Minute)
	m.Set("short", 7, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, ok := m.Get("short"); ok {
		t.Error("expected entry to expire")
	}
}

func TestMemory_GetOrCreate_SingleValue(t *testing.T) {
	m := New[*int](time.Minute, time.Minute)

	var wg sync.WaitGroup
	results := make([]*int, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.GetOrCreate("k", 0, func() *int { n := i; return &n })
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		if r != results[0] {
			t.Fatal("expected every caller to observe the same stored value")
		}
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", m.Len())
	}
}

func TestMemory_TouchExtends(t *testing.T) {
	m := New[string](time.Minute, time.Minute)
	m.Set("a", "1", 20*time.Millisecond)
	m.Touch("a", time.Minute)
	time.Sleep(40 * time.Millisecond)
	if v, ok := m.Get("a"); !ok || v != "1" {
		t.Errorf("expected touched entry to survive, got %q %v", v, ok)
	}
	m.Touch("missing", time.Minute)
	if _, ok := m.Get("missing"); ok {
		t.Error("touch must not create entries")
	}
}
