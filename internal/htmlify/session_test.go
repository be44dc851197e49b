package htmlify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoticeLogsOncePerKey(t *testing.T) {
	session, logs := testSession(t)
	session.Notice("k1", "first notice")
	session.Notice("k1", "first notice")
	session.Notice("k2", "second notice")

	assert.Equal(t, 1, strings.Count(logs.String(), "first notice"))
	assert.Equal(t, 1, strings.Count(logs.String(), "second notice"))
}

func TestNoticeConcurrent(t *testing.T) {
	session, logs := testSession(t)
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Notice("shared", "shared notice")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, strings.Count(logs.String(), "shared notice"))
}

func TestZeroSessionIsUsable(t *testing.T) {
	var session Session
	session.Notice("k", "zero value notice")
	session.RunCommand = func(context.Context, string, string) (string, error) { return "r1\n", nil }

	tree := newFakeTree()
	tree.options["revision"] = "echo r1"
	assert.Equal(t, "r1", session.Revision(context.Background(), tree))
}

func TestRevisionRunsCommandOnce(t *testing.T) {
	session, _ := testSession(t)
	tree := newFakeTree()
	tree.sourceDir = "/src/mozilla"
	tree.options["revision"] = "hg id -i -R $source"

	calls := 0
	session.RunCommand = func(_ context.Context, dir, command string) (string, error) {
		calls++
		assert.Equal(t, "/src/mozilla", dir)
		assert.Equal(t, "hg id -i -R /src/mozilla", command)
		return "  4f2a9c1  \nsecond line\n", nil
	}

	assert.Equal(t, "4f2a9c1", session.Revision(context.Background(), tree))
	assert.Equal(t, "4f2a9c1", session.Revision(context.Background(), tree))
	assert.Equal(t, 1, calls)
}

func TestRevisionFailureDegradesToEmpty(t *testing.T) {
	session, logs := testSession(t)
	tree := newFakeTree()
	tree.options["revision"] = "false"

	calls := 0
	session.RunCommand = func(context.Context, string, string) (string, error) {
		calls++
		return "", errors.New("exit status 1")
	}

	assert.Empty(t, session.Revision(context.Background(), tree))
	assert.Empty(t, session.Revision(context.Background(), tree))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, strings.Count(logs.String(), "revision lookup failed"))
}

func TestRevisionMissingOption(t *testing.T) {
	session, logs := testSession(t)
	assert.Empty(t, session.Revision(context.Background(), newFakeTree()))
	assert.Contains(t, logs.String(), "revision lookup failed")
}

func TestRevisionShellCommand(t *testing.T) {
	session, _ := testSession(t)
	tree := newFakeTree()
	tree.sourceDir = t.TempDir()
	tree.options["revision"] = "printf 'abc\\ndef\\n'"

	assert.Equal(t, "abc", session.Revision(context.Background(), tree))
}

func TestRevisionFromGitHead(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644))
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dxr", Email: "dxr@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(sub, 0755))

	session, _ := testSession(t)
	tree := newFakeTree()
	tree.sourceDir = sub
	tree.options["revision"] = GitRevision

	assert.Equal(t, hash.String(), session.Revision(context.Background(), tree))
}

func TestSidebarActions(t *testing.T) {
	session, logs := testSession(t)
	session.RunCommand = func(context.Context, string, string) (string, error) { return "abc\n", nil }

	tree := newFakeTree()
	tree.options["revision"] = "git rev-parse HEAD"
	tree.options["log"] = "http://git.example.com/log/$rev/$filename"

	b := NewBuilder(tree, Page{Path: "dom/a.cpp"}, Streams{}, session)
	got := b.sidebarActions(context.Background())

	want := "<div id=\"sidebarActions\"><b>Actions</b>\n" +
		"<a href=\"http://git.example.com/log/abc/dom/a.cpp\">Log</a> &nbsp;\n" +
		"<a href=\"http://hg.mozilla.org/mozilla-central/annotate/abc/dom/a.cpp\">Blame</a> &nbsp;\n" +
		"<a href=\"http://hg.mozilla.org/mozilla-central/diff/abc/dom/a.cpp\">Diff</a> &nbsp;\n" +
		"<a href=\"http://hg.mozilla.org/mozilla-central/raw-diff/abc/dom/a.cpp\">Raw</a> &nbsp;\n" +
		"</div>"
	assertGolden(t, want, got)

	b.sidebarActions(context.Background())
	assert.Equal(t, 3, strings.Count(logs.String(), "missing config key"))
}
