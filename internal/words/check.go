package words

import "strings"

var homophones = map[string][]string{
	"air": {"heir"}, "heir": {"air"},
	"ball": {"bawl"}, "bawl": {"ball"},
	"be": {"bee"}, "bee": {"be"},
	"blue": {"blew"}, "blew": {"blue"},
	"eye": {"aye", "i"}, "aye": {"eye", "i"},
	"flour": {"flower"}, "flower": {"flour"},
	"know": {"no"}, "no": {"know"},
	"knight": {"night"}, "night": {"knight"},
	"mail": {"male"}, "male": {"mail"},
	"pair": {"pear", "pare"}, "pear": {"pair", "pare"}, "pare": {"pair", "pear"},
	"peace": {"piece"}, "piece": {"peace"},
	"plain": {"plane"}, "plane": {"plain"},
	"rain": {"reign", "rein"}, "reign": {"rain", "rein"}, "rein": {"rain", "reign"},
	"read": {"red"}, "red": {"read"},
	"right": {"write", "rite"}, "write": {"right", "rite"},
	"sea": {"see"}, "see": {"sea"},
	"son": {"sun"}, "sun": {"son"},
	"tail": {"tale"}, "tale": {"tail"},
	"to": {"too", "two"}, "too": {"to", "two"}, "two": {"to", "too"},
	"way": {"weigh"}, "weigh": {"way"},
	"week": {"weak"}, "weak": {"week"},
	"phish": {"fish"}, "fish": {"phish"},
	"newb": {"noob"}, "noob": {"newb"},
	"sighs": {"size"}, "size": {"sighs"},
	"psi": {"sigh"}, "sigh": {"psi"},
	"noble": {"nobel"}, "nobel": {"noble"},
	"wrought": {"rot"}, "rot": {"wrought"},
	"pharaoh": {"farrow"}, "farrow": {"pharaoh"},
	"colonel": {"kernel"}, "kernel": {"colonel"},
	"armor": {"armour"}, "armour": {"armor"},
	"center": {"centre"}, "centre": {"center"},
	"color": {"colour"}, "colour": {"color"},
	"flavor": {"flavour"}, "flavour": {"flavor"},
	"harbor": {"harbour"}, "harbour": {"harbor"},
	"neighbor": {"neighbour"}, "neighbour": {"neighbor"},
	"honor": {"honour"}, "honour": {"honor"},
}

// normalizeSpelling folds British spellings onto American ones.
func normalizeSpelling(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	w = strings.ReplaceAll(w, "isation", "ization")
	if strings.HasSuffix(w, "ise") {
		w = strings.TrimSuffix(w, "ise") + "ize"
	}
	if strings.HasSuffix(w, "yse") {
		w = strings.TrimSuffix(w, "yse") + "yze"
	}
	w = strings.ReplaceAll(w, "our", "or")
	if strings.HasSuffix(w, "re") {
		w = strings.TrimSuffix(w, "re") + "er"
	}
	return w
}

// CheckAnswer reports whether candidate spells target, accepting regional
// spellings and registered homophones.
func CheckAnswer(target, candidate string) bool {
	if strings.TrimSpace(candidate) == "" {
		return false
	}
	normTarget := normalizeSpelling(target)
	normCandidate := normalizeSpelling(candidate)
	if normTarget == normCandidate {
		return true
	}
	lowerCandidate := strings.ToLower(strings.TrimSpace(candidate))
	for _, alt := range homophones[strings.ToLower(strings.TrimSpace(target))] {
		if alt == lowerCandidate || normalizeSpelling(alt) == normCandidate {
			return true
		}
	}
	return false
}
