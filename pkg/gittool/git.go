package gittool

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// GitClient lists what the HEAD commit changed.
type GitClient interface {
	// DiffChangesFromCommitted returns the files changed between the merge base
	// of compareBranch and HEAD. Uncommitted work is not included.
	// File names are relative to the path the client was opened with, and
	// changes outside of it are left out.
	DiffChangesFromCommitted(compareBranch string) ([]*Change, error)
}

// NewGitClient opens the git repository containing repositoryPath.
func NewGitClient(repositoryPath string) (GitClient, error) {
	repository, err := gogit.PlainOpenWithOptions(repositoryPath, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repositoryPath, err)
	}

	prefix, err := workTreePrefix(repository, repositoryPath)
	if err != nil {
		return nil, err
	}

	return &gitClient{
		repositoryPath: repositoryPath,
		prefix:         prefix,
		repository:     repository,
	}, nil
}

// workTreePrefix returns the slash separated path of repositoryPath inside the
// work tree, empty when it is the work tree root.
func workTreePrefix(repository *gogit.Repository, repositoryPath string) (string, error) {
	worktree, err := repository.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}
	absPath, err := filepath.Abs(repositoryPath)
	if err != nil {
		return "", fmt.Errorf("get absolute path of %s: %w", repositoryPath, err)
	}
	rel, err := filepath.Rel(worktree.Filesystem.Root(), absPath)
	if err != nil {
		return "", fmt.Errorf("locate %s in work tree: %w", repositoryPath, err)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel) + "/", nil
}

var _ GitClient = (*gitClient)(nil)

type gitClient struct {
	repositoryPath string
	// prefix of repositoryPath in the work tree, ending with a slash
	prefix     string
	repository *gogit.Repository
}

func (g *gitClient) DiffChangesFromCommitted(compareBranch string) ([]*Change, error) {
	head, err := g.repository.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	headCommit, err := g.repository.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("HEAD commit: %w", err)
	}

	hash, err := g.repository.ResolveRevision(plumbing.Revision(compareBranch))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", compareBranch, err)
	}
	compareCommit, err := g.repository.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%s commit: %w", compareBranch, err)
	}

	base := compareCommit
	if bases, err := headCommit.MergeBase(compareCommit); err == nil && len(bases) > 0 {
		base = bases[0]
	}

	return g.diffChanges(base, headCommit)
}

func (g *gitClient) diffChanges(from, to *object.Commit) ([]*Change, error) {
	fromTree, err := from.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", from.Hash, err)
	}
	toTree, err := to.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", to.Hash, err)
	}

	diffs, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, fmt.Errorf("diff tree: %w", err)
	}

	var changes []*Change
	for _, d := range diffs {
		action, err := d.Action()
		if err != nil {
			return nil, fmt.Errorf("diff action: %w", err)
		}

		var change *Change
		switch action {
		case merkletrie.Insert:
			change = &Change{FileName: d.To.Name, Mode: NewMode}
		case merkletrie.Modify:
			change = &Change{FileName: d.To.Name, Mode: ModifyMode}
		case merkletrie.Delete:
			change = &Change{FileName: d.From.Name, Mode: DeleteMode}
		default:
			continue
		}

		if !strings.HasPrefix(change.FileName, g.prefix) {
			continue
		}
		change.FileName = strings.TrimPrefix(change.FileName, g.prefix)
		changes = append(changes, change)
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].FileName < changes[j].FileName
	})
	return changes, nil
}
