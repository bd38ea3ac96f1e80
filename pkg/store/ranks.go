// Package store holds the optional local reference data: the domain
// popularity table and the blacklist. Both load lazily on first use, load at
// most once concurrently, and serve reads from an immutable snapshot.
package store

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"phishjudge/pkg/logger"
)

// RankTable maps domains to popularity ranks (1 = most popular) from a
// Tranco-style "rank,domain" CSV.
type RankTable struct {
	path  string
	log   logger.Logger
	group singleflight.Group
	snap  atomic.Pointer[rankSnapshot]
	loads atomic.Int64
}

// rankSnapshot with a nil map is the "no data" state.
type rankSnapshot struct {
	ranks map[string]int
}

func NewRankTable(path string, log logger.Logger) *RankTable {
	if log == nil {
		log = logger.NewNop()
	}
	return &RankTable{path: path, log: log}
}

// Available reports whether a rank file was found and loaded.
func (t *RankTable) Available() bool {
	return t.get().ranks != nil
}

// RankOf returns the rank of domain. ok is false when the table has no data
// or the domain is not listed; use Available to tell those apart.
func (t *RankTable) RankOf(domain string) (int, bool) {
	ranks := t.get().ranks
	if ranks == nil {
		return 0, false
	}
	rank, ok := ranks[strings.ToLower(strings.TrimSpace(domain))]
	return rank, ok
}

// Len returns the number of ranked domains.
func (t *RankTable) Len() int {
	return len(t.get().ranks)
}

// Invalidate drops the cached table; the next read reloads it.
func (t *RankTable) Invalidate() {
	t.snap.Store(nil)
}

func (t *RankTable) get() *rankSnapshot {
	if s := t.snap.Load(); s != nil {
		return s
	}
	v, _, _ := t.group.Do("load", func() (any, error) {
		if s := t.snap.Load(); s != nil {
			return s, nil
		}
		s := t.load()
		if !t.snap.CompareAndSwap(nil, s) {
			return t.snap.Load(), nil
		}
		return s, nil
	})
	return v.(*rankSnapshot)
}

func (t *RankTable) load() *rankSnapshot {
	t.loads.Add(1)
	if t.path == "" {
		return &rankSnapshot{}
	}
	ranks, err := readRanks(t.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			t.log.Warn("rank table unavailable", logger.String("path", t.path), logger.Error(err))
		}
		return &rankSnapshot{}
	}
	if len(ranks) == 0 {
		t.log.Warn("rank table is empty", logger.String("path", t.path))
		return &rankSnapshot{}
	}
	t.log.Info("rank table loaded", logger.String("path", t.path), logger.Int("domains", len(ranks)))
	return &rankSnapshot{ranks: ranks}
}

func readRanks(path string) (map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	ranks := make(map[string]int)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		rankStr, domain, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		rank, err := strconv.Atoi(strings.TrimSpace(rankStr))
		if err != nil {
			continue
		}
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if _, seen := ranks[domain]; !seen {
			ranks[domain] = rank
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading rank file: %w", err)
	}
	return ranks, nil
}
