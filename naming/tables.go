package naming

import "github.com/pthm-cable/fauna/world"

// weighted is one syllable with its sampling weight.
type weighted struct {
	s string
	w int
}

// phonemeTable holds the syllable pools for one naming flavor.
type phonemeTable struct {
	prefixes   []weighted
	middles    []weighted
	suffixes   []weighted
	connectors []string
	rare       []string
}

// tables is indexed by world.PhonemeClass. Each flavor has its own sound:
// arid names are hard and clipped, lush names liquid, oceanic names long
// vowels, frozen names sibilant, volcanic names percussive, alien names
// deliberately awkward.
var tables = [world.NumPhonemeClasses]phonemeTable{
	world.PhonemeDry: {
		prefixes: []weighted{
			{"kar", 4}, {"zar", 3}, {"dun", 3}, {"rok", 3}, {"tesk", 2},
			{"quar", 2}, {"bract", 1}, {"sahr", 2}, {"vark", 2}, {"xun", 1},
		},
		middles: []weighted{
			{"ak", 3}, {"ur", 3}, {"ad", 2}, {"esh", 2}, {"ol", 2},
			{"ran", 2}, {"uk", 1}, {"ag", 1},
		},
		suffixes: []weighted{
			{"tar", 3}, {"gon", 3}, {"rek", 2}, {"dax", 2}, {"usk", 2},
			{"morn", 1}, {"zad", 1}, {"korr", 1},
		},
		connectors: []string{"'", "-"},
		rare:       []string{"ath", "ek", "oss"},
	},
	world.PhonemeLush: {
		prefixes: []weighted{
			{"syl", 4}, {"ver", 3}, {"mel", 3}, {"lor", 3}, {"fen", 2},
			{"ael", 2}, {"nym", 2}, {"thal", 1}, {"ili", 2}, {"bren", 1},
		},
		middles: []weighted{
			{"ia", 3}, {"en", 3}, {"al", 2}, {"ome", 2}, {"ily", 2},
			{"ara", 2}, {"eve", 1}, {"on", 1},
		},
		suffixes: []weighted{
			{"wen", 3}, {"lis", 3}, {"mira", 2}, {"dell", 2}, {"vane", 2},
			{"roth", 1}, {"lyn", 1}, {"elle", 1},
		},
		connectors: []string{"-", "'"},
		rare:       []string{"iel", "enne", "ys"},
	},
	world.PhonemeOceanic: {
		prefixes: []weighted{
			{"mar", 4}, {"nau", 3}, {"thal", 3}, {"pel", 3}, {"cor", 2},
			{"lum", 2}, {"abys", 1}, {"sirr", 2}, {"del", 2}, {"ocea", 1},
		},
		middles: []weighted{
			{"oa", 3}, {"ei", 3}, {"ula", 2}, {"ane", 2}, {"ori", 2},
			{"ass", 2}, {"une", 1}, {"ila", 1},
		},
		suffixes: []weighted{
			{"deen", 3}, {"mor", 3}, {"lune", 2}, {"aris", 2}, {"wrack", 1},
			{"tide", 2}, {"nessa", 1}, {"phon", 1},
		},
		connectors: []string{"'", "-"},
		rare:       []string{"ae", "oth", "une"},
	},
	world.PhonemeFrozen: {
		prefixes: []weighted{
			{"kri", 4}, {"fros", 3}, {"isk", 3}, {"sval", 3}, {"hjor", 2},
			{"nev", 2}, {"bryn", 2}, {"ulf", 1}, {"skel", 2}, {"thry", 1},
		},
		middles: []weighted{
			{"is", 3}, {"ev", 3}, {"ald", 2}, {"urn", 2}, {"ikk", 2},
			{"oss", 2}, {"elg", 1}, {"ryn", 1},
		},
		suffixes: []weighted{
			{"grim", 3}, {"vatn", 2}, {"heim", 3}, {"skal", 2}, {"drif", 2},
			{"myr", 1}, {"fell", 1}, {"ulf", 1},
		},
		connectors: []string{"-", "'"},
		rare:       []string{"nir", "sk", "ven"},
	},
	world.PhonemeVolcanic: {
		prefixes: []weighted{
			{"mag", 4}, {"pyr", 3}, {"ash", 3}, {"vul", 3}, {"cin", 2},
			{"bras", 2}, {"ign", 2}, {"scor", 1}, {"tef", 2}, {"krak", 1},
		},
		middles: []weighted{
			{"ma", 3}, {"or", 3}, {"ull", 2}, {"edr", 2}, {"ith", 2},
			{"ang", 2}, {"oz", 1}, {"umb", 1},
		},
		suffixes: []weighted{
			{"doom", 2}, {"khan", 3}, {"tor", 3}, {"brak", 2}, {"nath", 2},
			{"gorr", 1}, {"uzz", 1}, {"malt", 1},
		},
		connectors: []string{"'", "-"},
		rare:       []string{"ur", "akk", "eth"},
	},
	world.PhonemeAlien: {
		prefixes: []weighted{
			{"xe", 4}, {"qu", 3}, {"zz", 2}, {"vy", 3}, {"kth", 2},
			{"oum", 2}, {"yll", 2}, {"pth", 1}, {"eez", 2}, {"ghi", 1},
		},
		middles: []weighted{
			{"xi", 3}, {"uu", 3}, {"yx", 2}, {"ql", 2}, {"oe", 2},
			{"zaa", 2}, {"ihl", 1}, {"vv", 1},
		},
		suffixes: []weighted{
			{"ox", 3}, {"iq", 3}, {"zem", 2}, {"ulz", 2}, {"yth", 2},
			{"axx", 1}, {"oon", 1}, {"eqt", 1},
		},
		connectors: []string{"'", "-"},
		rare:       []string{"x", "zz", "qo"},
	},
}

// familySuffixes give each flavor its taxonomic family ending.
var familySuffixes = [world.NumPhonemeClasses]string{
	world.PhonemeDry:      "ridae",
	world.PhonemeLush:     "silvidae",
	world.PhonemeOceanic:  "thalidae",
	world.PhonemeFrozen:   "boridae",
	world.PhonemeVolcanic: "pyridae",
	world.PhonemeAlien:    "xenidae",
}
