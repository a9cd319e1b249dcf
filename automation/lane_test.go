package automation

import "testing"

func beats(l *Lane) []float64 {
	out := make([]float64, len(l.Points))
	for i, p := range l.Points {
		out[i] = p.Beat
	}
	return out
}

func TestLaneInsertKeepsOrder(t *testing.T) {
	var l Lane
	for i, b := range []float64{4, 1, 3, 1, 0} {
		l.Insert(Point{ID: string(rune('a' + i)), Beat: b})
	}
	if !l.Sorted() {
		t.Fatalf("points not sorted: %v", beats(&l))
	}
	// equal beats keep insertion order
	if l.Points[1].ID != "b" || l.Points[2].ID != "d" {
		t.Errorf("equal-beat order = %s,%s, want b,d", l.Points[1].ID, l.Points[2].ID)
	}
}

func TestLaneMoveResorts(t *testing.T) {
	l := Lane{Points: []Point{{ID: "a", Beat: 0}, {ID: "b", Beat: 2}, {ID: "c", Beat: 4}}}
	if !l.Move("a", 5, 0.9) {
		t.Fatal("Move returned false")
	}
	if l.Points[2].ID != "a" || l.Points[2].Value != 0.9 || !l.Sorted() {
		t.Errorf("after move: %+v", l.Points)
	}
	if l.Move("missing", 1, 1) {
		t.Error("Move of unknown id reported success")
	}
}

func TestLaneRemove(t *testing.T) {
	l := Lane{Points: []Point{{ID: "a"}, {ID: "b", Beat: 1}}}
	if !l.Remove("a") || len(l.Points) != 1 || l.Points[0].ID != "b" {
		t.Errorf("after remove: %+v", l.Points)
	}
	if l.Remove("a") {
		t.Error("second remove reported success")
	}
}

func TestLaneCloneIsDeep(t *testing.T) {
	l := Lane{ID: "l", Points: []Point{{ID: "a", Value: 1}}}
	c := l.Clone()
	c.Points[0].Value = 2
	if l.Points[0].Value != 1 {
		t.Error("clone shares point storage")
	}
}
