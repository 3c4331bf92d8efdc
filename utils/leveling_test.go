package utils

import "testing"

func TestRequiredXP(t *testing.T) {
	cases := []struct {
		level int
		want  int
	}{
		{1, 100},
		{2, 105},
		{3, 110},  // floor(100 * 1.1025)
		{4, 115},  // floor(100 * 1.157625)
		{10, 155}, // floor(100 * 1.05^9)
	}
	for _, c := range cases {
		if got := RequiredXP(c.level); got != c.want {
			t.Errorf("RequiredXP(%d) = %d, want %d", c.level, got, c.want)
		}
	}
}

func TestLevelFromTotalXPZero(t *testing.T) {
	level, into, next := LevelFromTotalXP(0)
	if level != 1 || into != 0 || next != 100 {
		t.Errorf("LevelFromTotalXP(0) = (%d, %d, %d), want (1, 0, 100)", level, into, next)
	}
}

func TestLevelFromTotalXPBoundary(t *testing.T) {
	level, into, next := LevelFromTotalXP(100)
	if level != 2 || into != 0 || next != 105 {
		t.Errorf("LevelFromTotalXP(100) = (%d, %d, %d), want (2, 0, 105)", level, into, next)
	}

	// One XP short of level 2.
	level, into, _ = LevelFromTotalXP(99)
	if level != 1 || into != 99 {
		t.Errorf("LevelFromTotalXP(99) = (%d, %d), want (1, 99)", level, into)
	}
}

func TestLevelFromTotalXPMonotonic(t *testing.T) {
	prev := 0
	for xp := 0; xp <= 50000; xp += 7 {
		level, _, _ := LevelFromTotalXP(xp)
		if level < prev {
			t.Fatalf("level decreased from %d to %d at totalXP=%d", prev, level, xp)
		}
		prev = level
	}
}

// Subtracting the per-level requirements one by one must land on the same
// level the direct computation reports, with no off-by-one drift.
func TestLevelFromTotalXPAgainstCumulative(t *testing.T) {
	cumulative := 0
	for level := 1; level < 30; level++ {
		cumulative += RequiredXP(level)

		got, into, _ := LevelFromTotalXP(cumulative)
		if got != level+1 || into != 0 {
			t.Errorf("totalXP=%d: got (level=%d, into=%d), want (level=%d, into=0)",
				cumulative, got, into, level+1)
		}

		got, into, _ = LevelFromTotalXP(cumulative - 1)
		if got != level || into != RequiredXP(level)-1 {
			t.Errorf("totalXP=%d: got (level=%d, into=%d), want (level=%d, into=%d)",
				cumulative-1, got, into, level, RequiredXP(level)-1)
		}
	}
}

func TestLevelFromTotalXPCapped(t *testing.T) {
	level, _, _ := LevelFromTotalXP(1 << 30)
	if level != MaxLevel {
		t.Errorf("huge totalXP should cap at level %d, got %d", MaxLevel, level)
	}
}

func TestLevelFromTotalXPNegative(t *testing.T) {
	level, into, _ := LevelFromTotalXP(-50)
	if level != 1 || into != 0 {
		t.Errorf("negative totalXP = (%d, %d), want (1, 0)", level, into)
	}
}
