package voice

import (
	"strconv"
	"strings"
	"unicode"
)

type wordKind int

const (
	kindNone wordKind = iota
	kindUnit
	kindTeen
	kindTen
	kindHundred
	kindScale
)

type numberWord struct {
	value   int
	kind    wordKind
	ordinal bool
}

var numberWords = map[string]numberWord{
	"zero": {0, kindUnit, false}, "one": {1, kindUnit, false}, "two": {2, kindUnit, false},
	"three": {3, kindUnit, false}, "four": {4, kindUnit, false}, "five": {5, kindUnit, false},
	"six": {6, kindUnit, false}, "seven": {7, kindUnit, false}, "eight": {8, kindUnit, false},
	"nine": {9, kindUnit, false},

	"ten": {10, kindTeen, false}, "eleven": {11, kindTeen, false}, "twelve": {12, kindTeen, false},
	"thirteen": {13, kindTeen, false}, "fourteen": {14, kindTeen, false}, "fifteen": {15, kindTeen, false},
	"sixteen": {16, kindTeen, false}, "seventeen": {17, kindTeen, false}, "eighteen": {18, kindTeen, false},
	"nineteen": {19, kindTeen, false},

	"twenty": {20, kindTen, false}, "thirty": {30, kindTen, false}, "forty": {40, kindTen, false},
	"fifty": {50, kindTen, false}, "sixty": {60, kindTen, false}, "seventy": {70, kindTen, false},
	"eighty": {80, kindTen, false}, "ninety": {90, kindTen, false},

	"hundred":  {100, kindHundred, false},
	"thousand": {1000, kindScale, false},
	"lakh":     {100000, kindScale, false},
	"lakhs":    {100000, kindScale, false},
	"lac":      {100000, kindScale, false},
	"million":  {1000000, kindScale, false},
	"crore":    {10000000, kindScale, false},

	"first": {1, kindUnit, true}, "second": {2, kindUnit, true}, "third": {3, kindUnit, true},
	"fourth": {4, kindUnit, true}, "fifth": {5, kindUnit, true}, "sixth": {6, kindUnit, true},
	"seventh": {7, kindUnit, true}, "eighth": {8, kindUnit, true}, "ninth": {9, kindUnit, true},
	"tenth": {10, kindTeen, true}, "eleventh": {11, kindTeen, true}, "twelfth": {12, kindTeen, true},
	"thirteenth": {13, kindTeen, true}, "fourteenth": {14, kindTeen, true}, "fifteenth": {15, kindTeen, true},
	"sixteenth": {16, kindTeen, true}, "seventeenth": {17, kindTeen, true}, "eighteenth": {18, kindTeen, true},
	"nineteenth": {19, kindTeen, true},
	"twentieth": {20, kindTen, true}, "thirtieth": {30, kindTen, true}, "fortieth": {40, kindTen, true},
	"fiftieth": {50, kindTen, true}, "sixtieth": {60, kindTen, true}, "seventieth": {70, kindTen, true},
	"eightieth": {80, kindTen, true}, "ninetieth": {90, kindTen, true},
}

// token is one whitespace-separated word with its surrounding punctuation split off
type token struct {
	lead, core, trail string
}

func (t token) lower() string { return strings.ToLower(t.core) }

func (t token) String() string { return t.lead + t.core + t.trail }

func isNumberWord(w string) bool {
	_, ok := numberWords[w]
	return ok
}

func isDigitWord(w string) bool {
	nw, ok := numberWords[w]
	return ok && nw.kind == kindUnit && !nw.ordinal
}

// WordsToNumbers rewrites spoken numbers as digits so later patterns see "9876" whether the
// speaker said "nine eight seven six" or the recognizer already produced digits.
//
// Runs of single digit words are concatenated and keep leading zeros ("zero zero seven" is
// "007"). Other runs are combined as cardinals ("one hundred and five" is "105", "one lakh"
// is "100000"), "point" introduces decimals, ordinals keep their suffix ("twenty first" is
// "21st") and two part years are joined ("twenty twenty five" is "2025"). After "rate" or
// "price" a unit followed by a tens value is read as hundreds ("rate one fifty" is
// "rate 150"). Punctuation stuck to a word is kept and ends the run.
func WordsToNumbers(text string) string {
	toks := tokenize(text)
	out := make([]string, 0, len(toks))

	for i := 0; i < len(toks); {
		if !isNumberWord(toks[i].lower()) {
			out = append(out, toks[i].String())
			i++
			continue
		}
		end := runEnd(toks, i)
		words := make([]string, 0, end-i)
		for _, t := range toks[i:end] {
			words = append(words, t.lower())
		}
		out = append(out, toks[i].lead+strings.Join(convertRun(words, afterPriceLabel(out)), " ")+toks[end-1].trail)
		i = end
	}
	return strings.Join(out, " ")
}

// tokenize splits text on whitespace and expands hyphenated number words such as
// "twenty-five" into separate tokens
func tokenize(text string) []token {
	var toks []token
	for _, field := range strings.Fields(text) {
		start := strings.IndexFunc(field, isWordRune)
		if start < 0 {
			toks = append(toks, token{lead: field})
			continue
		}
		end := strings.LastIndexFunc(field, isWordRune) + 1
		lead, core, trail := field[:start], field[start:end], field[end:]

		parts := strings.Split(core, "-")
		if len(parts) > 1 && allNumberWords(parts) {
			for j, part := range parts {
				t := token{core: part}
				if j == 0 {
					t.lead = lead
				}
				if j == len(parts)-1 {
					t.trail = trail
				}
				toks = append(toks, t)
			}
			continue
		}
		toks = append(toks, token{lead: lead, core: core, trail: trail})
	}
	return toks
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func allNumberWords(parts []string) bool {
	for _, p := range parts {
		if !isNumberWord(strings.ToLower(p)) {
			return false
		}
	}
	return true
}

// runEnd returns the index just past the number run starting at start
func runEnd(toks []token, start int) int {
	i := start
	for i < len(toks) {
		w := toks[i].lower()
		switch {
		case i > start && toks[i].lead != "":
			return i
		case isNumberWord(w):
		case w == "and" && i > start && i+1 < len(toks) && isScaleOrHundred(toks[i-1].lower()) && isNumberWord(toks[i+1].lower()):
		case w == "point" && i > start && i+1 < len(toks) && isDigitWord(toks[i+1].lower()) && !numberWords[toks[i-1].lower()].ordinal:
			// decimals are single digit words up to the end of the run
			i++
			for i < len(toks) && isDigitWord(toks[i].lower()) && toks[i].lead == "" {
				if toks[i].trail != "" {
					return i + 1
				}
				i++
			}
			return i
		default:
			return i
		}
		if numberWords[w].ordinal || toks[i].trail != "" {
			return i + 1
		}
		i++
	}
	return i
}

func isScaleOrHundred(w string) bool {
	k := numberWords[w].kind
	return k == kindHundred || k == kindScale
}

// spoken is one number produced from a run of words
type spoken struct {
	value   int
	simple  bool // below a hundred and built without hundred or scale words
	ordinal bool
	last    wordKind
}

// afterPriceLabel reports whether the words so far end with "rate" or "price", optionally
// followed by "is" or "of"
func afterPriceLabel(out []string) bool {
	n := len(out)
	if n == 0 {
		return false
	}
	w := strings.ToLower(strings.Trim(out[n-1], ".,;:!?"))
	if (w == "is" || w == "of") && n > 1 {
		w = strings.ToLower(strings.Trim(out[n-2], ".,;:!?"))
	}
	return w == "rate" || w == "price"
}

// convertRun turns the lowercased words of one run into digit strings. price enables the
// spoken hundreds form used for prices.
func convertRun(words []string, price bool) []string {
	intWords, fraction := words, ""
	for i, w := range words {
		if w == "point" {
			intWords = words[:i]
			for _, d := range words[i+1:] {
				fraction += strconv.Itoa(numberWords[d].value)
			}
			break
		}
	}

	var out []string
	if digits, ok := digitRun(intWords); ok {
		out = []string{digits}
	} else {
		nums := cardinals(intWords)
		if price {
			nums = joinHundreds(nums)
		}
		nums = joinYears(nums)
		for _, n := range nums {
			s := strconv.Itoa(n.value)
			if n.ordinal {
				s += ordinalSuffix(n.value)
			}
			out = append(out, s)
		}
	}

	if fraction != "" && len(out) > 0 {
		out[len(out)-1] += "." + fraction
	}
	return out
}

// digitRun concatenates two or more single digit words
func digitRun(words []string) (string, bool) {
	if len(words) < 2 {
		return "", false
	}
	var b strings.Builder
	for _, w := range words {
		if !isDigitWord(w) {
			return "", false
		}
		b.WriteString(strconv.Itoa(numberWords[w].value))
	}
	return b.String(), true
}

// cardinals combines number words into values, starting a new value whenever a word cannot
// extend the current one ("five ten" is two numbers, "twenty five" is one)
func cardinals(words []string) []spoken {
	var out []spoken
	var total, current int
	cur := spoken{simple: true}
	started := false

	flush := func() {
		if started {
			cur.value = total + current
			out = append(out, cur)
		}
		total, current, started = 0, 0, false
		cur = spoken{simple: true}
	}

	for _, w := range words {
		nw, ok := numberWords[w]
		if !ok {
			continue
		}
		if started && startsNewNumber(cur.last, nw.kind) {
			flush()
		}
		started = true
		switch nw.kind {
		case kindUnit, kindTeen, kindTen:
			current += nw.value
		case kindHundred:
			if current == 0 {
				current = 1
			}
			current *= 100
			cur.simple = false
		case kindScale:
			if current == 0 {
				current = 1
			}
			total += current * nw.value
			current = 0
			cur.simple = false
		}
		cur.last = nw.kind
		if nw.ordinal {
			cur.ordinal = true
			flush()
		}
	}
	flush()
	return out
}

func startsNewNumber(last, next wordKind) bool {
	switch next {
	case kindUnit:
		return last == kindUnit || last == kindTeen
	case kindTeen, kindTen:
		return last == kindUnit || last == kindTeen || last == kindTen
	case kindHundred:
		return last == kindHundred || last == kindScale
	}
	return false
}

// joinHundreds reads exactly two simple numbers, a unit then 10 to 99, as one value:
// "one fifty" is 150 and "two twenty five" is 225
func joinHundreds(nums []spoken) []spoken {
	if len(nums) != 2 {
		return nums
	}
	a, b := nums[0], nums[1]
	if !a.simple || !b.simple || a.ordinal || b.ordinal || a.value < 1 || a.value > 9 || b.value < 10 || b.value > 99 {
		return nums
	}
	return []spoken{{value: a.value*100 + b.value}}
}

// joinYears merges spoken years such as "twenty twenty five" or "nineteen ninety nine"
func joinYears(nums []spoken) []spoken {
	out := make([]spoken, 0, len(nums))
	for i := 0; i < len(nums); i++ {
		a := nums[i]
		if i+1 < len(nums) {
			b := nums[i+1]
			if a.simple && b.simple && !a.ordinal && !b.ordinal &&
				(a.value == 19 || a.value == 20) && b.value >= 10 && b.value <= 99 {
				out = append(out, spoken{value: a.value*100 + b.value})
				i++
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

func ordinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
