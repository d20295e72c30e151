package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/mindtype-hq/mindtype/internal/assessment"
)

// CalcCache memoizes scoring results. The key covers the full request
// content (session, methodology, interim flag and the exact response
// payload), so a stale hit is impossible even with concurrent writers to
// the same session id.
type CalcCache struct {
	mu      sync.Mutex
	entries map[string]assessment.ScoringResult
	order   []string
	max     int
}

func NewCalcCache(max int) *CalcCache {
	if max <= 0 {
		max = 256
	}
	return &CalcCache{entries: map[string]assessment.ScoringResult{}, max: max}
}

// CalcKey derives the content hash for a scoring request.
func CalcKey(sessionID string, responses []assessment.Response, methodology assessment.Methodology, interim bool) string {
	h := sha256.New()
	payload, _ := json.Marshal(struct {
		SessionID   string                 `json:"session_id"`
		Methodology assessment.Methodology `json:"methodology"`
		Interim     bool                   `json:"interim"`
		Responses   []assessment.Response  `json:"responses"`
	}{sessionID, methodology, interim, responses})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CalcCache) Get(key string) (assessment.ScoringResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *CalcCache) Put(key string, result assessment.ScoringResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
		for len(c.order) > c.max {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.entries[key] = result
}
