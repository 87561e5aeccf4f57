package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("MD_TEST_INT", "nope")
	if got := Int("MD_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("want=7 got=%d", got)
	}
	t.Setenv("MD_TEST_INT", " 42 ")
	if got := Int("MD_TEST_INT", 7, nil); got != 42 {
		t.Fatalf("want=42 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{"true": true, "ON": true, "0": false, "off": false}
	for raw, want := range cases {
		t.Setenv("MD_TEST_BOOL", raw)
		if got := Bool("MD_TEST_BOOL", !want, nil); got != want {
			t.Fatalf("%q: want=%v got=%v", raw, want, got)
		}
	}
	t.Setenv("MD_TEST_BOOL", "maybe")
	if got := Bool("MD_TEST_BOOL", true, nil); !got {
		t.Fatalf("garbage should keep default")
	}
}

func TestMillisAndSeconds(t *testing.T) {
	t.Setenv("MD_TEST_MS", "1500")
	if got := Millis("MD_TEST_MS", time.Second, nil); got != 1500*time.Millisecond {
		t.Fatalf("want=1.5s got=%s", got)
	}
	t.Setenv("MD_TEST_S", "-3")
	if got := Seconds("MD_TEST_S", time.Hour, nil); got != time.Hour {
		t.Fatalf("negative should keep default, got=%s", got)
	}
}

func TestStringDefault(t *testing.T) {
	t.Setenv("MD_TEST_STR", "   ")
	if got := String("MD_TEST_STR", "fallback", nil); got != "fallback" {
		t.Fatalf("want=fallback got=%q", got)
	}
}

func TestFloat(t *testing.T) {
	t.Setenv("MD_TEST_FLOAT", "0.25")
	if got := Float("MD_TEST_FLOAT", 1, nil); got != 0.25 {
		t.Fatalf("want=0.25 got=%v", got)
	}
	t.Setenv("MD_TEST_FLOAT", "half")
	if got := Float("MD_TEST_FLOAT", 1, nil); got != 1 {
		t.Fatalf("garbage should keep default, got=%v", got)
	}
}
