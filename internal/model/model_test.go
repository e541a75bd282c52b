package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestUser_Initial(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want string
	}{
		{"nil user", nil, "U"},
		{"empty name", &User{Name: "  "}, "U"},
		{"lowercase", &User{Name: "alice"}, "A"},
		{"multibyte", &User{Name: "ゆき"}, "ゆ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.Initial(); got != tt.want {
				t.Errorf("Initial() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{101, 100},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCategoryNames_FixedOrder(t *testing.T) {
	got := CategoryNames()
	want := []string{
		"Communication Skills",
		"Technical Knowledge",
		"Problem Solving",
		"Cultural Fit",
		"Confidence and Clarity",
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CategoryNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// 呼び出し側の変更が共有されないこと
	got[0] = "changed"
	if CategoryNames()[0] != want[0] {
		t.Error("CategoryNames should return a fresh slice")
	}
}

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("create feedback: %w", NewKindError(KindStorage, "upsert", base))

	if got := KindOf(wrapped); got != KindStorage {
		t.Errorf("KindOf(wrapped) = %q, want %q", got, KindStorage)
	}
	if !errors.Is(wrapped, base) {
		t.Error("KindError should unwrap to the underlying error")
	}
	if got := KindOf(base); got != KindNone {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
}
