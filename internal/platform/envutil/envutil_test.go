package envutil

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("ENVUTIL_INT", " 42 ")
	if got := Int("ENVUTIL_INT", 1); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
	t.Setenv("ENVUTIL_INT", "nope")
	if got := Int("ENVUTIL_INT", 7); got != 7 {
		t.Fatalf("Int fallback: want=7 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{"true": true, "ON": true, "0": false, "off": false, "maybe": true, "": true}
	for raw, want := range cases {
		t.Setenv("ENVUTIL_BOOL", raw)
		if got := Bool("ENVUTIL_BOOL", true); got != want {
			t.Fatalf("Bool(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("ENVUTIL_SECONDS", "90")
	if got := Seconds("ENVUTIL_SECONDS", time.Second); got != 90*time.Second {
		t.Fatalf("Seconds: want=90s got=%s", got)
	}
	t.Setenv("ENVUTIL_SECONDS", "-3")
	if got := Seconds("ENVUTIL_SECONDS", time.Minute); got != time.Minute {
		t.Fatalf("Seconds fallback: want=1m got=%s", got)
	}
}

func TestString(t *testing.T) {
	t.Setenv("ENVUTIL_STRING", "  ")
	if got := String("ENVUTIL_STRING", "def"); got != "def" {
		t.Fatalf("String: want=def got=%q", got)
	}
}

func TestMillis(t *testing.T) {
	t.Setenv("ENVUTIL_MILLIS", "0")
	if got := Millis("ENVUTIL_MILLIS", time.Second); got != 0 {
		t.Fatalf("Millis zero: want=0 got=%s", got)
	}
	t.Setenv("ENVUTIL_MILLIS", "250")
	if got := Millis("ENVUTIL_MILLIS", time.Second); got != 250*time.Millisecond {
		t.Fatalf("Millis: want=250ms got=%s", got)
	}
}
