package htmlify

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"

	"github.com/dxr-dev/dxr/internal/logging"
)

// GitRevision is the revision option value that reads HEAD of the source
// directory instead of running a command.
const GitRevision = "@git"

// CommandRunner runs a shell command in dir and returns its stdout.
type CommandRunner func(ctx context.Context, dir, command string) (string, error)

// Session carries the state shared by every render of one indexing run:
// the resolved revision per tree and the notices already shown.
type Session struct {
	Logger     *log.Logger
	RunCommand CommandRunner

	mu        sync.Mutex
	noticed   map[string]bool
	revisions map[string]string
}

func NewSession(logger *log.Logger) *Session {
	if logger == nil {
		logger = logging.Default()
	}
	return &Session{
		Logger:     logger,
		RunCommand: runShell,
		noticed:    make(map[string]bool),
		revisions:  make(map[string]string),
	}
}

// Notice logs msg once per key for the lifetime of the session.
func (s *Session) Notice(key, msg string, keyvals ...any) {
	s.mu.Lock()
	if s.noticed == nil {
		s.noticed = make(map[string]bool)
	}
	seen := s.noticed[key]
	s.noticed[key] = true
	s.mu.Unlock()

	if seen {
		return
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger.Warn(msg, keyvals...)
}

// Revision resolves the tree's revision once. Any failure is reported as a
// single notice and yields "".
func (s *Session) Revision(ctx context.Context, tree TreeConfig) string {
	name := tree.TreeName()

	s.mu.Lock()
	rev, ok := s.revisions[name]
	s.mu.Unlock()
	if ok {
		return rev
	}

	rev, err := s.lookupRevision(ctx, tree)
	if err != nil {
		s.Notice("config-notice", "revision lookup failed", logging.FieldTree, name, logging.FieldError, err)
		rev = ""
	}

	s.mu.Lock()
	if s.revisions == nil {
		s.revisions = make(map[string]string)
	}
	s.revisions[name] = rev
	s.mu.Unlock()
	return rev
}

func (s *Session) lookupRevision(ctx context.Context, tree TreeConfig) (string, error) {
	command, err := tree.Option("revision")
	if err != nil {
		return "", err
	}
	command = strings.TrimSpace(command)
	if command == GitRevision {
		return gitHead(tree.SourceDir())
	}

	command = strings.ReplaceAll(command, "$source", tree.SourceDir())
	runner := s.RunCommand
	if runner == nil {
		runner = runShell
	}
	out, err := runner(ctx, tree.SourceDir(), command)
	if err != nil {
		return "", fmt.Errorf("run %q: %w", command, err)
	}
	return firstLine(out), nil
}

func gitHead(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository %s: %w", dir, err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

func runShell(ctx context.Context, dir, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	out, err := cmd.Output()
	return string(out), err
}

func firstLine(out string) string {
	scanner := bufio.NewScanner(bytes.NewBufferString(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
