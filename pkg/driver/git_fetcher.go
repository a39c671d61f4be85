package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitFetcher checks fixture sources out of git into a local cache laid out as
// <CacheDir>/fixtures/<name>/<version>.
type GitFetcher struct {
	CacheDir string
	Logger   *slog.Logger
}

// DefaultCacheDir returns the per-user cache used when intent.yml names none.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache dir: %w", err)
	}
	return filepath.Join(base, "intent"), nil
}

// Fetch checks src out at its pinned revision and returns the lock entry plus
// the directory holding the source's suites.
func (g *GitFetcher) Fetch(src *FixtureSource) (*LockedSource, string, error) {
	if g == nil || g.CacheDir == "" {
		return nil, "", errors.New("git fetcher unavailable")
	}
	if src == nil {
		return nil, "", errors.New("git fetcher: nil source")
	}
	url := strings.TrimSpace(src.Git)
	if url == "" {
		return nil, "", fmt.Errorf("fixture source %q: git URL required", src.Name)
	}
	subdir, err := sourceSubdir(src.Dir)
	if err != nil {
		return nil, "", fmt.Errorf("fixture source %q: %w", src.Name, err)
	}

	name := sanitizeName(src.Name)
	baseDir := filepath.Join(g.CacheDir, "fixtures", sanitizePathSegment(name))
	version, commit, err := g.ensureCheckout(baseDir, url, src)
	if err != nil {
		return nil, "", err
	}

	checkoutDir := filepath.Join(baseDir, sanitizePathSegment(version))
	suitesDir := filepath.Join(checkoutDir, subdir)
	if info, err := os.Stat(suitesDir); err != nil || !info.IsDir() {
		return nil, "", fmt.Errorf("fixture source %q: %s is not a directory in the checkout", src.Name, src.Dir)
	}
	checksum, err := dirChecksum(suitesDir)
	if err != nil {
		return nil, "", fmt.Errorf("fixture source %q: checksum: %w", src.Name, err)
	}

	return &LockedSource{
		Name:     name,
		URL:      url,
		Version:  version,
		Commit:   commit,
		Dir:      subdir,
		Checksum: checksum,
	}, suitesDir, nil
}

func (g *GitFetcher) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *GitFetcher) ensureCheckout(baseDir, url string, src *FixtureSource) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}

	revisions, descriptor, err := gitRevisionsFor(src)
	if err != nil {
		return "", "", fmt.Errorf("fixture source %q: %w", src.Name, err)
	}

	if rev := strings.TrimSpace(src.Rev); rev != "" {
		if version, commit, ok := cachedCheckout(baseDir, rev); ok {
			g.logger().Debug("fixture source cached", slog.String("source", src.Name), slog.String("rev", rev))
			return version, commit, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	g.logger().Info("cloning fixture source", slog.String("source", src.Name), slog.String("url", url))
	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url, Tags: git.AllTags})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	var hash *plumbing.Hash
	for _, rev := range revisions {
		hash, err = repo.ResolveRevision(rev)
		if err == nil {
			break
		}
	}
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", descriptor, err)
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", descriptor, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	g.logger().Info("fixture source checked out",
		slog.String("source", src.Name),
		slog.String("commit", hash.String()),
		slog.String("dir", targetDir))
	return version, hash.String(), nil
}

// cachedCheckout finds an existing checkout of an explicit rev. A full commit
// hash is stored under its own name; any other rev is stored as rev@commit, so
// exactly one such directory must exist for it to be reused.
func cachedCheckout(baseDir, rev string) (string, string, bool) {
	if isFullHash(rev) {
		if _, err := os.Stat(filepath.Join(baseDir, sanitizePathSegment(rev))); err == nil {
			return rev, rev, true
		}
		return "", "", false
	}
	prefix := sanitizePathSegment(rev) + "_"
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return "", "", false
	}
	commit := ""
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || !strings.HasPrefix(name, prefix) || !isFullHash(name[len(prefix):]) {
			continue
		}
		if commit != "" {
			return "", "", false
		}
		commit = name[len(prefix):]
	}
	if commit == "" {
		return "", "", false
	}
	return gitPinnedVersion(rev, commit), commit, true
}

func isFullHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

func gitPinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

// gitRevisionsFor lists the revisions to try, in order, for a source. Branches
// other than the clone's default only exist as remote-tracking refs.
func gitRevisionsFor(src *FixtureSource) ([]plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(src.Rev); rev != "" {
		return []plumbing.Revision{plumbing.Revision(rev)}, rev, nil
	}
	if tag := strings.TrimSpace(src.Tag); tag != "" {
		return []plumbing.Revision{plumbing.Revision("refs/tags/" + tag)}, tag, nil
	}
	if branch := strings.TrimSpace(src.Branch); branch != "" {
		return []plumbing.Revision{
			plumbing.Revision("refs/heads/" + branch),
			plumbing.Revision("refs/remotes/origin/" + branch),
		}, branch, nil
	}
	return nil, "", fmt.Errorf("rev, tag, or branch required")
}

func sourceSubdir(dir string) (string, error) {
	dir = filepath.Clean(strings.TrimSpace(dir))
	if dir == "" || dir == "." {
		return ".", nil
	}
	if filepath.IsAbs(dir) || dir == ".." || strings.HasPrefix(dir, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("dir %q must stay inside the repository", dir)
	}
	return dir, nil
}

// dirChecksum hashes every file below path except git metadata.
func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// FetchAll fetches every source configured in cfg, recording each in lock.
// It returns the suite directories in source-name order.
func FetchAll(cfg *Config, fetcher *GitFetcher, lock *Lockfile) ([]string, error) {
	if cfg == nil || lock == nil {
		return nil, errors.New("fetch: config and lockfile required")
	}
	dirs := make([]string, 0, len(cfg.Fixtures.Sources))
	for _, name := range cfg.SourceNames() {
		locked, dir, err := fetcher.Fetch(cfg.Fixtures.Sources[name])
		if err != nil {
			return nil, err
		}
		lock.Put(locked)
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// LockedSuiteDir returns where Fetch placed the suites of a locked source.
func LockedSuiteDir(cacheDir string, src *LockedSource) string {
	dir := src.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(cacheDir, "fixtures", sanitizePathSegment(src.Name), sanitizePathSegment(src.Version), dir)
}
