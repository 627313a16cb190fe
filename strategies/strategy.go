package strategies

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/backsim/backtest"
)

var registry = make(map[string]func() backtest.Strategy)

// Register makes a strategy constructor available under name. Later
// registrations with the same name replace earlier ones.
func Register(name string, fn func() backtest.Strategy) {
	registry[name] = fn
}

// ByName builds a fresh strategy instance for name.
func ByName(name string) (backtest.Strategy, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (have %v)", name, Names())
	}
	return mk(), nil
}

// Names lists registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("noop", func() backtest.Strategy { return Noop{} })
	Register("buy-and-hold", func() backtest.Strategy { return &BuyAndHold{} })
	Register("ma-cross", func() backtest.Strategy { return &MACross{Fast: 12, Slow: 26} })
}
