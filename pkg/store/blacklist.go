package store

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/singleflight"

	"phishjudge/pkg/common"
	"phishjudge/pkg/logger"
)

// Blacklist is a file-backed set of domains, one per line, '#' comments allowed.
type Blacklist struct {
	path    string
	log     logger.Logger
	group   singleflight.Group
	snap    atomic.Pointer[blacklistSnapshot]
	writeMu sync.Mutex
	loads   atomic.Int64
}

// blacklistSnapshot is never mutated after it is published.
type blacklistSnapshot struct {
	domains mapset.Set[string]
}

func NewBlacklist(path string, log logger.Logger) *Blacklist {
	if log == nil {
		log = logger.NewNop()
	}
	return &Blacklist{path: path, log: log}
}

// Path is the backing file, empty when there is none.
func (b *Blacklist) Path() string {
	return b.path
}

// Contains reports whether domain (a bare host or a URL) is listed.
func (b *Blacklist) Contains(domain string) bool {
	host := common.HostOf(domain)
	if host == "" {
		return false
	}
	return b.get().domains.Contains(host)
}

// Loaded reports whether there is any blacklist data at all.
func (b *Blacklist) Loaded() bool {
	return b.Len() > 0
}

func (b *Blacklist) Len() int {
	return b.get().domains.Cardinality()
}

// List returns the listed domains in sorted order.
func (b *Blacklist) List() []string {
	list := b.get().domains.ToSlice()
	sort.Strings(list)
	return list
}

// Invalidate clears the cache; the next read reloads from disk.
func (b *Blacklist) Invalidate() {
	b.snap.Store(nil)
}

// Reload reads the backing file now and publishes the result. It is
// serialized with writes so an older read never replaces a newer write.
func (b *Blacklist) Reload() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_, err := b.reloadLocked()
	return err
}

// reloadLocked publishes the file's current contents. Callers hold writeMu.
func (b *Blacklist) reloadLocked() (*blacklistSnapshot, error) {
	s, err := b.read()
	if err != nil {
		return nil, err
	}
	b.snap.Store(s)
	return s, nil
}

// currentLocked returns the file's contents, so writes merge with edits made
// by other processes. It falls back to the cache when the file is unreadable.
func (b *Blacklist) currentLocked() mapset.Set[string] {
	s, err := b.reloadLocked()
	if err != nil {
		b.log.Warn("blacklist reread failed", logger.String("path", b.path), logger.Error(err))
		return b.get().domains
	}
	return s.domains
}

// Replace rewrites the backing file with domains and reloads.
func (b *Blacklist) Replace(domains []string) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.writeLocked(normalizeDomains(domains))
}

// Add appends one domain. Adding a listed domain is a no-op.
func (b *Blacklist) Add(domain string) error {
	host := common.HostOf(domain)
	if host == "" {
		return fmt.Errorf("invalid blacklist entry %q", domain)
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	current := b.currentLocked()
	if current.Contains(host) {
		return nil
	}
	return b.writeLocked(append(current.ToSlice(), host))
}

// Remove deletes one domain, reporting whether it was listed.
func (b *Blacklist) Remove(domain string) (bool, error) {
	host := common.HostOf(domain)

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	current := b.currentLocked()
	if host == "" || !current.Contains(host) {
		return false, nil
	}
	next := current.Clone()
	next.Remove(host)
	if err := b.writeLocked(next.ToSlice()); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Blacklist) get() *blacklistSnapshot {
	if s := b.snap.Load(); s != nil {
		return s
	}
	v, _, _ := b.group.Do("load", func() (any, error) {
		if s := b.snap.Load(); s != nil {
			return s, nil
		}
		s, err := b.read()
		if err != nil {
			b.log.Warn("blacklist unavailable", logger.String("path", b.path), logger.Error(err))
			s = &blacklistSnapshot{domains: mapset.NewThreadUnsafeSet[string]()}
		}
		if !b.snap.CompareAndSwap(nil, s) {
			return b.snap.Load(), nil
		}
		return s, nil
	})
	return v.(*blacklistSnapshot)
}

// read loads the file. A missing file is an empty blacklist, not an error.
func (b *Blacklist) read() (*blacklistSnapshot, error) {
	b.loads.Add(1)
	domains := mapset.NewThreadUnsafeSet[string]()
	if b.path == "" {
		return &blacklistSnapshot{domains: domains}, nil
	}

	file, err := os.Open(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &blacklistSnapshot{domains: domains}, nil
		}
		return nil, fmt.Errorf("could not open blacklist: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if host := common.HostOf(line); host != "" {
			domains.Add(host)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading blacklist: %w", err)
	}
	return &blacklistSnapshot{domains: domains}, nil
}

// writeLocked persists domains with write-temp-then-rename and publishes the
// new snapshot. Callers hold writeMu.
func (b *Blacklist) writeLocked(domains []string) error {
	if b.path == "" {
		return errors.New("blacklist has no backing file")
	}
	domains = normalizeDomains(domains)

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create blacklist dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".blacklist-*")
	if err != nil {
		return fmt.Errorf("create temp blacklist: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, d := range domains {
		fmt.Fprintln(w, d)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write blacklist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp blacklist: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replace blacklist: %w", err)
	}

	if _, err := b.reloadLocked(); err != nil {
		b.Invalidate()
		return err
	}
	b.log.Info("blacklist updated", logger.String("path", b.path), logger.Int("domains", len(domains)))
	return nil
}

func normalizeDomains(domains []string) []string {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, d := range domains {
		if host := common.HostOf(d); host != "" {
			set.Add(host)
		}
	}
	out := set.ToSlice()
	sort.Strings(out)
	return out
}
