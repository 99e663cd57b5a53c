package fetcher

import (
	"bufio"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/IshaanNene/PlayaETL/internal/config"
)

// UserAgentPool holds the identity strings sent with detail requests.
type UserAgentPool struct {
	agents []string
	intn   func(n int) int
}

// NewUserAgentPool creates a pool from a fixed list. Blank entries are dropped.
func NewUserAgentPool(agents []string) *UserAgentPool {
	p := &UserAgentPool{intn: rand.Intn}
	for _, a := range agents {
		if a = strings.TrimSpace(a); a != "" {
			p.agents = append(p.agents, a)
		}
	}
	return p
}

// LoadUserAgents reads one User-Agent per line from path.
// A missing file is logged and yields an empty pool that falls back to the
// built-in identity.
func LoadUserAgents(path string, logger *slog.Logger) (*UserAgentPool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Error("user agents file not found", "path", path)
			return NewUserAgentPool(nil), nil
		}
		return nil, fmt.Errorf("open user agents file: %w", err)
	}
	defer f.Close()

	var agents []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		agents = append(agents, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read user agents file: %w", err)
	}

	pool := NewUserAgentPool(agents)
	logger.Debug("user agents loaded", "path", path, "count", pool.Len())
	return pool, nil
}

// Pick returns a User-Agent chosen uniformly at random.
func (p *UserAgentPool) Pick() string {
	if len(p.agents) == 0 {
		return "playaetl/" + config.Version
	}
	return p.agents[p.intn(len(p.agents))]
}

// Len returns the number of loaded agents.
func (p *UserAgentPool) Len() int {
	return len(p.agents)
}
