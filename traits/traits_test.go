package traits

import "testing"

func TestCanBeHuntedBy(t *testing.T) {
	cases := []struct {
		name     string
		prey     Type
		predator Type
		size     float32
		want     bool
	}{
		{"apex takes grazer", Grazer, ApexPredator, 1, true},
		{"apex takes grounded flier", Flying, ApexPredator, 0.5, true},
		{"apex cannot reach aquatic", Aquatic, ApexPredator, 1, false},
		{"aquatic predator stays in water", Grazer, AquaticPredator, 1, false},
		{"aquatic predator takes amphibian", Amphibian, AquaticPredator, 1, true},
		{"no cannibalism", ApexPredator, ApexPredator, 1, false},
		{"herbivores do not hunt", Grazer, Browser, 1, false},
		{"too small for apex", Grazer, ApexPredator, 0.3, false},
		{"too large for small predator", Grazer, SmallPredator, 1.5, false},
		{"trophic order holds", ApexPredator, SmallPredator, 0.8, false},
	}
	for _, tc := range cases {
		if got := CanBeHuntedBy(tc.prey, tc.predator, tc.size); got != tc.want {
			t.Errorf("%s: CanBeHuntedBy(%v, %v, %v) = %v, want %v",
				tc.name, tc.prey, tc.predator, tc.size, got, tc.want)
		}
	}
}

func TestIsAquatic(t *testing.T) {
	if !IsAquatic(Aquatic) || !IsAquatic(Amphibian) {
		t.Fatal("water-column types should report aquatic")
	}
	if IsAquatic(Grazer) || IsAquatic(Flying) {
		t.Fatal("land types should not report aquatic")
	}
}
