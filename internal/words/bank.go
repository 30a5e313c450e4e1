package words

import (
	"embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
)

//go:embed lists/*.txt
var listFiles embed.FS

const Omniscient = "omniscient"

// ModeOrder is the escalation order used when a streak promotes the room.
var ModeOrder = []string{"baby", "cakewalk", "learner", "intermediate", "heated", "genius", "polymath", Omniscient}

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Mode is the timing and reward profile for one difficulty.
type Mode struct {
	BaseSeconds int
	Stars       int
}

var modes = map[string]Mode{
	"baby":         {BaseSeconds: 10, Stars: 6},
	"cakewalk":     {BaseSeconds: 12, Stars: 8},
	"learner":      {BaseSeconds: 14, Stars: 10},
	"intermediate": {BaseSeconds: 18, Stars: 12},
	"heated":       {BaseSeconds: 20, Stars: 14},
	"genius":       {BaseSeconds: 25, Stars: 16},
	"polymath":     {BaseSeconds: 30, Stars: 18},
	Omniscient:     {BaseSeconds: 20, Stars: 20},
}

func ModeFor(difficulty string) Mode {
	if mode, ok := modes[difficulty]; ok {
		return mode
	}
	return Mode{BaseSeconds: 15, Stars: 5}
}

func KnownDifficulty(difficulty string) bool {
	_, ok := modes[difficulty]
	return ok
}

// NextMode returns the mode after difficulty in ModeOrder, capped at the last one.
func NextMode(difficulty string) string {
	for i, mode := range ModeOrder {
		if mode != difficulty {
			continue
		}
		if i+1 < len(ModeOrder) {
			return ModeOrder[i+1]
		}
		return mode
	}
	return difficulty
}

// Bank holds one sorted word list per difficulty.
type Bank struct {
	mu    sync.RWMutex
	lists map[string][]string
	rng   *rand.Rand
}

// NewBank builds a bank from the given lists. The omniscient list is
// always rebuilt as the union of every other list.
func NewBank(lists map[string][]string) *Bank {
	b := &Bank{
		lists: make(map[string][]string, len(lists)+1),
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	var all []string
	for mode, words := range lists {
		if mode == Omniscient {
			continue
		}
		cleaned := sortByLength(words)
		b.lists[mode] = cleaned
		all = append(all, cleaned...)
	}
	b.lists[Omniscient] = sortByLength(all)
	return b
}

// EmbeddedBank loads the word lists compiled into the binary.
func EmbeddedBank() (*Bank, error) {
	lists := make(map[string][]string)
	for _, mode := range ModeOrder {
		if mode == Omniscient {
			continue
		}
		data, err := listFiles.ReadFile("lists/" + mode + ".txt")
		if err != nil {
			return nil, fmt.Errorf("read %s list: %w", mode, err)
		}
		lists[mode] = ParseList(string(data))
	}
	return NewBank(lists), nil
}

// ParseList splits raw text into words, dropping blanks and lines starting with "-".
func ParseList(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		word := strings.TrimSpace(line)
		if word == "" || strings.HasPrefix(word, "-") {
			continue
		}
		out = append(out, word)
	}
	return out
}

func sortByLength(words []string) []string {
	out := make([]string, 0, len(words))
	for _, word := range words {
		if trimmed := strings.TrimSpace(word); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) < len(out[j])
	})
	return out
}

func (b *Bank) Words(difficulty string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.lists[difficulty]...)
}

// Pick returns a random word for difficulty. It retries up to attempts
// times to avoid previous and accepts a repeat after that.
func (b *Bank) Pick(difficulty, previous string, attempts int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.lists[difficulty]
	if len(list) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, difficulty)
	}
	if attempts < 1 {
		attempts = 1
	}
	var word string
	for range attempts {
		word = list[b.rng.IntN(len(list))]
		if !strings.EqualFold(word, previous) {
			break
		}
	}
	return word, nil
}
