package geometry

import (
	"image"
	"testing"
)

func TestNewBoxClampsNegativeSize(t *testing.T) {
	b := NewBox(5, 5, -3, -1)
	if b.W != 0 || b.H != 0 {
		t.Errorf("expected zero size, got %dx%d", b.W, b.H)
	}
}

func TestUnion(t *testing.T) {
	a := NewBox(10, 20, 30, 10)
	b := NewBox(5, 25, 10, 40)

	u := a.Union(b)
	want := Box{X: 5, Y: 20, W: 35, H: 45}
	if u != want {
		t.Errorf("expected %+v, got %+v", want, u)
	}

	all, ok := UnionAll([]Box{a, b, NewBox(100, 0, 1, 1)})
	if !ok {
		t.Fatal("expected union of non-empty slice")
	}
	if all.Right() != 101 || all.Y != 0 {
		t.Errorf("unexpected union %+v", all)
	}

	if _, ok := UnionAll(nil); ok {
		t.Error("expected no union for empty slice")
	}
}

func TestCenterAndContainsPoint(t *testing.T) {
	b := NewBox(0, 0, 11, 4)
	cx, cy := b.Center()
	if cx != 5.5 || cy != 2 {
		t.Errorf("unexpected center (%v, %v)", cx, cy)
	}

	tests := []struct {
		x, y float64
		want bool
	}{
		{0, 0, true},
		{11, 4, true},
		{11.5, 2, false},
		{5, -0.1, false},
	}
	for _, tt := range tests {
		if got := b.ContainsPoint(tt.x, tt.y); got != tt.want {
			t.Errorf("ContainsPoint(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRectangleRoundTrip(t *testing.T) {
	r := image.Rect(3, 4, 50, 60)
	b := FromRectangle(r)
	if b.Rectangle() != r {
		t.Errorf("expected %v, got %v", r, b.Rectangle())
	}
	if !FromCorners(0, 0, 100, 100).Contains(b) {
		t.Error("expected outer box to contain inner box")
	}
}
