package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Fetcher maintains a local cache of corpus checkouts, one directory per
// repository and revision.
type Fetcher struct {
	cacheDir string
}

// Checkout is a pinned corpus tree on disk.
type Checkout struct {
	Dir      string
	Commit   string
	Checksum string
}

// NewFetcher creates a fetcher rooted at cacheDir; an empty cacheDir uses
// the user cache directory.
func NewFetcher(cacheDir string) (*Fetcher, error) {
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("fetch: resolve cache dir: %w", err)
		}
		cacheDir = filepath.Join(base, "rinha", "corpus")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("fetch: create cache dir: %w", err)
	}
	return &Fetcher{cacheDir: cacheDir}, nil
}

// Fetch ensures a checkout of url at revision and returns it. An existing
// cached checkout for the same url and revision is reused without touching
// the network.
func (f *Fetcher) Fetch(url, revision string) (*Checkout, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("fetch: repository URL required")
	}
	if revision == "" {
		revision = "HEAD"
	}

	targetDir := filepath.Join(f.cacheDir, repoSlug(url)+"@"+sanitizePathSegment(revision))
	if _, err := os.Stat(targetDir); err == nil {
		slog.Debug("corpus cache hit", slog.String("dir", targetDir))
		return f.describe(targetDir, headCommit(targetDir))
	}

	tmpDir, err := os.MkdirTemp(f.cacheDir, "git-fetch-*")
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return nil, err
	}

	slog.Debug("cloning corpus", slog.String("url", url), slog.String("revision", revision))
	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{
		URL:   url,
		Depth: 0,
	})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("git clone %s: %w", url, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		remote, remoteErr := repo.ResolveRevision(plumbing.Revision("refs/remotes/origin/" + revision))
		if remoteErr != nil {
			_ = os.RemoveAll(tmpDir)
			return nil, fmt.Errorf("resolve revision %s: %w", revision, err)
		}
		hash = remote
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("git checkout %s: %w", revision, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		// Another process may have won the rename; reuse its checkout.
		if _, statErr := os.Stat(targetDir); statErr == nil {
			return f.describe(targetDir, hash.String())
		}
		return nil, err
	}
	return f.describe(targetDir, hash.String())
}

func (f *Fetcher) describe(dir, commit string) (*Checkout, error) {
	checksum, err := dirChecksum(dir)
	if err != nil {
		return nil, fmt.Errorf("fetch: checksum %s: %w", dir, err)
	}
	return &Checkout{Dir: dir, Commit: commit, Checksum: checksum}, nil
}

// headCommit reports the commit a cached checkout sits at, or "" when the
// directory is not a usable repository.
func headCommit(dir string) string {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}

// repoSlug flattens a repository URL into one path segment.
func repoSlug(url string) string {
	slug := url
	if idx := strings.Index(slug, "://"); idx >= 0 {
		slug = slug[idx+3:]
	}
	slug = strings.TrimSuffix(slug, ".git")
	return sanitizePathSegment(strings.ReplaceAll(slug, "/", "_"))
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
	result := b.String()
	if result == "" {
		return "head"
	}
	return result
}

func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
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
		h.Write([]byte(filepath.Base(p)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
