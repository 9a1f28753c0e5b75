package suggest

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"allowcast/internal/config"
	"allowcast/internal/support"
)

// Engine synthesizes plausible neighbour addresses around known-good seeds.
// Generation is heuristic: candidates are well-formed and distinct, but
// nothing guarantees they are reachable or unused by anyone else.
type Engine struct {
	cache *seedCache

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewEngine() *Engine {
	return &Engine{
		cache: &seedCache{},
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// DefaultEngine serves the API routes. Tests build their own engines.
var DefaultEngine = NewEngine()

func (e *Engine) randomOctet() int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return 1 + e.rng.Intn(254)
}

// collector accumulates unique candidates up to a requested count. The seed
// itself and any pre-excluded addresses never appear in the output.
type collector struct {
	need int
	used map[string]struct{}
	list []string
}

func newCollector(count int, exclude map[string]struct{}, seeds ...string) *collector {
	used := make(map[string]struct{}, len(exclude)+len(seeds))
	for addr := range exclude {
		used[addr] = struct{}{}
	}
	for _, seed := range seeds {
		used[seed] = struct{}{}
	}
	return &collector{need: count, used: used}
}

func (c *collector) add(addr string) {
	if c.full() {
		return
	}
	if _, seen := c.used[addr]; seen {
		return
	}
	c.used[addr] = struct{}{}
	c.list = append(c.list, addr)
}

func (c *collector) full() bool {
	return len(c.list) >= c.need
}

// Suggest proposes up to count candidate addresses near seed. Candidates come
// from the seed's own last-octet band first, then from octets within spread of
// the seed, and finally (for class-B-sized first octets) from the same band in
// the adjacent /24 subnets.
func (e *Engine) Suggest(seed string, count, spread int) []string {
	return e.suggestExcluding(seed, count, spread, nil)
}

func (e *Engine) suggestExcluding(seed string, count, spread int, exclude map[string]struct{}) []string {
	octets, ok := support.ParseDottedQuad(seed)
	if !ok || count <= 0 {
		return nil
	}

	prefix, last, _ := support.SplitPrefix(seed)
	c := newCollector(count, exclude, seed)

	fillSameBand(c, prefix, last)
	fillProximity(c, prefix, last, spread)

	if octets[0] >= 128 && octets[0] <= 191 {
		for _, delta := range []int{-1, 1} {
			third := clampOctet(octets[2]+delta, 0, 255)
			if third == octets[2] {
				continue
			}
			adjacent := fmt.Sprintf("%d.%d.%d", octets[0], octets[1], third)
			fillSameBand(c, adjacent, last)
		}
	}

	return c.list
}

// fillSameBand emits every address of the band containing seedOctet within
// prefix, ascending.
func fillSameBand(c *collector, prefix string, seedOctet int) {
	b, ok := bandOf(seedOctet)
	if !ok {
		return
	}
	for octet := b.lo; octet <= b.hi && !c.full(); octet++ {
		c.add(support.JoinPrefix(prefix, octet))
	}
}

// fillProximity walks offsets 1..spread in both directions from seedOctet,
// clamped to the usable host range.
func fillProximity(c *collector, prefix string, seedOctet, spread int) {
	for offset := 1; offset <= spread && !c.full(); offset++ {
		c.add(support.JoinPrefix(prefix, clampOctet(seedOctet+offset, 1, 254)))
		if c.full() {
			return
		}
		c.add(support.JoinPrefix(prefix, clampOctet(seedOctet-offset, 1, 254)))
	}
}

// SuggestDiversified splits count between the seed's own band neighbourhood
// and the other bands of its /24, topping up with random last octets when the
// bands under-supply.
func (e *Engine) SuggestDiversified(seed string, count, spread int) []string {
	return e.diversifiedExcluding(seed, count, spread, nil)
}

func (e *Engine) diversifiedExcluding(seed string, count, spread int, exclude map[string]struct{}) []string {
	if count <= 0 {
		return nil
	}
	prefix, last, ok := support.SplitPrefix(seed)
	if !ok {
		return nil
	}

	samePct := config.GetConfig().SameSegmentPercent()
	sameShare := count * samePct / 100
	if sameShare > count {
		sameShare = count
	}

	result := e.suggestExcluding(seed, sameShare, spread, exclude)

	c := newCollector(count, exclude, seed)
	c.list = result
	for _, addr := range result {
		c.used[addr] = struct{}{}
	}

	for _, b := range otherBands(last) {
		for octet := b.lo; octet <= b.hi && !c.full(); octet++ {
			c.add(support.JoinPrefix(prefix, octet))
		}
	}

	// Random top-up, bounded so an exhausted /24 cannot spin forever.
	for attempts := 0; !c.full() && attempts < 4*254; attempts++ {
		c.add(support.JoinPrefix(prefix, e.randomOctet()))
	}

	return c.list
}
