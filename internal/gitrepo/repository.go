package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/temirov/gitmcp/internal/execshell"
)

const (
	repositoryRootRequiredMessageConstant     = "repository root not configured"
	gitExecutorNotConfiguredMessageConstant   = "git executor not configured"
	repositoryInitErrorTemplateConstant       = "unable to open repository at %s: %s"
	repositoryStatusErrorTemplateConstant     = "unable to read worktree status: %w"
	repositoryBranchesErrorTemplateConstant   = "unable to list branches: %w"
	repositoryHeadResolutionTemplateConstant  = "unable to resolve HEAD: %w"
	terminalPromptEnvironmentKeyConstant      = "GIT_TERMINAL_PROMPT"
	terminalPromptDisabledValueConstant       = "0"
	gitCheckoutArgumentConstant               = "checkout"
	gitNewBranchFlagArgumentConstant          = "-b"
	gitMergeArgumentConstant                  = "merge"
	gitWorktreeArgumentConstant               = "worktree"
	gitWorktreeAddArgumentConstant            = "add"
	gitWorktreeListArgumentConstant           = "list"
	gitWorktreeRemoveArgumentConstant         = "remove"
	gitAddArgumentConstant                    = "add"
	gitStageAllFlagArgumentConstant           = "-A"
	gitPathspecSeparatorArgumentConstant      = "--"
	gitCommitArgumentConstant                 = "commit"
	gitCommitMessageFlagArgumentConstant      = "-m"
	gitPushArgumentConstant                   = "push"
	gitPullArgumentConstant                   = "pull"
	gitRevParseArgumentConstant               = "rev-parse"
	gitHeadReferenceArgumentConstant          = "HEAD"
	detachedHeadLabelTemplateConstant         = "HEAD detached at %s"
	abbreviatedDetachedHeadHashLengthConstant = 7
)

// ErrRepositoryRootRequired indicates a factory was constructed without a repository root.
var ErrRepositoryRootRequired = errors.New(repositoryRootRequiredMessageConstant)

// ErrGitExecutorNotConfigured indicates a factory was constructed without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// RepositoryInitError reports a path that could not be opened as a git repository.
type RepositoryInitError struct {
	Path  string
	Cause error
}

// Error describes the initialization failure including the offending path.
func (initError RepositoryInitError) Error() string {
	return fmt.Sprintf(repositoryInitErrorTemplateConstant, initError.Path, initError.Cause)
}

// Unwrap exposes the underlying cause.
func (initError RepositoryInitError) Unwrap() error {
	return initError.Cause
}

// GitExecutor represents the ability to run git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryFactory opens repositories rooted at a configured filesystem path.
type RepositoryFactory struct {
	repositoryRoot string
	gitExecutor    GitExecutor
}

// NewRepositoryFactory constructs a RepositoryFactory and validates its dependencies.
func NewRepositoryFactory(repositoryRoot string, gitExecutor GitExecutor) (*RepositoryFactory, error) {
	trimmedRepositoryRoot := strings.TrimSpace(repositoryRoot)
	if len(trimmedRepositoryRoot) == 0 {
		return nil, ErrRepositoryRootRequired
	}
	if gitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryFactory{repositoryRoot: trimmedRepositoryRoot, gitExecutor: gitExecutor}, nil
}

// Open binds the configured root to a Repository, failing eagerly when the
// path does not hold a git repository.
func (factory *RepositoryFactory) Open() (*Repository, error) {
	openedRepository, openError := gogit.PlainOpen(factory.repositoryRoot)
	if openError != nil {
		return nil, RepositoryInitError{Path: factory.repositoryRoot, Cause: openError}
	}
	return &Repository{
		repositoryRoot:  factory.repositoryRoot,
		gitExecutor:     factory.gitExecutor,
		gogitRepository: openedRepository,
	}, nil
}

// Repository exposes the version control operations served over the protocol.
type Repository struct {
	repositoryRoot  string
	gitExecutor     GitExecutor
	gogitRepository *gogit.Repository
}

// WorktreeStatus summarizes the working tree relative to HEAD.
type WorktreeStatus struct {
	Branch     string   `json:"branch"`
	Clean      bool     `json:"clean"`
	Staged     []string `json:"staged"`
	Modified   []string `json:"modified"`
	Deleted    []string `json:"deleted"`
	Untracked  []string `json:"untracked"`
	Conflicted []string `json:"conflicted"`
}

// BranchListing names every local branch alongside the currently checked out one.
type BranchListing struct {
	Current  string   `json:"current"`
	Branches []string `json:"branches"`
}

// Status reports the current branch and file states of the working tree.
func (repository *Repository) Status() (WorktreeStatus, error) {
	branchName, branchError := repository.currentBranchName()
	if branchError != nil {
		return WorktreeStatus{}, branchError
	}

	worktree, worktreeError := repository.gogitRepository.Worktree()
	if worktreeError != nil {
		return WorktreeStatus{}, fmt.Errorf(repositoryStatusErrorTemplateConstant, worktreeError)
	}

	fileStatuses, statusError := worktree.Status()
	if statusError != nil {
		return WorktreeStatus{}, fmt.Errorf(repositoryStatusErrorTemplateConstant, statusError)
	}

	worktreeStatus := WorktreeStatus{
		Branch:     branchName,
		Clean:      fileStatuses.IsClean(),
		Staged:     []string{},
		Modified:   []string{},
		Deleted:    []string{},
		Untracked:  []string{},
		Conflicted: []string{},
	}

	for filePath, fileStatus := range fileStatuses {
		if fileStatus.Staging == gogit.UpdatedButUnmerged || fileStatus.Worktree == gogit.UpdatedButUnmerged {
			worktreeStatus.Conflicted = append(worktreeStatus.Conflicted, filePath)
			continue
		}
		if fileStatus.Staging == gogit.Untracked && fileStatus.Worktree == gogit.Untracked {
			worktreeStatus.Untracked = append(worktreeStatus.Untracked, filePath)
			continue
		}
		switch fileStatus.Staging {
		case gogit.Added, gogit.Modified, gogit.Deleted, gogit.Renamed, gogit.Copied:
			worktreeStatus.Staged = append(worktreeStatus.Staged, filePath)
		}
		switch fileStatus.Worktree {
		case gogit.Modified:
			worktreeStatus.Modified = append(worktreeStatus.Modified, filePath)
		case gogit.Deleted:
			worktreeStatus.Deleted = append(worktreeStatus.Deleted, filePath)
		}
	}

	sort.Strings(worktreeStatus.Staged)
	sort.Strings(worktreeStatus.Modified)
	sort.Strings(worktreeStatus.Deleted)
	sort.Strings(worktreeStatus.Untracked)
	sort.Strings(worktreeStatus.Conflicted)

	return worktreeStatus, nil
}

// ListBranches enumerates local branch names in lexical order.
func (repository *Repository) ListBranches() (BranchListing, error) {
	currentBranch, branchError := repository.currentBranchName()
	if branchError != nil {
		return BranchListing{}, branchError
	}

	branchIterator, iteratorError := repository.gogitRepository.Branches()
	if iteratorError != nil {
		return BranchListing{}, fmt.Errorf(repositoryBranchesErrorTemplateConstant, iteratorError)
	}

	branchNames := []string{}
	iterationError := branchIterator.ForEach(func(branchReference *plumbing.Reference) error {
		branchNames = append(branchNames, branchReference.Name().Short())
		return nil
	})
	if iterationError != nil {
		return BranchListing{}, fmt.Errorf(repositoryBranchesErrorTemplateConstant, iterationError)
	}

	sort.Strings(branchNames)
	return BranchListing{Current: currentBranch, Branches: branchNames}, nil
}

// CreateBranch creates a branch off the current HEAD and checks it out.
func (repository *Repository) CreateBranch(executionContext context.Context, branchName string) error {
	return repository.runGit(executionContext, gitCheckoutArgumentConstant, gitNewBranchFlagArgumentConstant, branchName)
}

// CreateBranchFrom creates a branch off the named start point and checks it out.
func (repository *Repository) CreateBranchFrom(executionContext context.Context, branchName string, startPoint string) error {
	return repository.runGit(executionContext, gitCheckoutArgumentConstant, gitNewBranchFlagArgumentConstant, branchName, startPoint)
}

// Checkout switches the working tree to an existing branch.
func (repository *Repository) Checkout(executionContext context.Context, branchName string) error {
	return repository.runGit(executionContext, gitCheckoutArgumentConstant, branchName)
}

// Merge merges the source branch into the currently checked out branch.
func (repository *Repository) Merge(executionContext context.Context, sourceBranch string) error {
	return repository.runGit(executionContext, gitMergeArgumentConstant, sourceBranch)
}

// AddWorktree creates a linked worktree at the given path on a new branch.
func (repository *Repository) AddWorktree(executionContext context.Context, worktreePath string, branchName string) error {
	return repository.runGit(executionContext, gitWorktreeArgumentConstant, gitWorktreeAddArgumentConstant, gitNewBranchFlagArgumentConstant, branchName, worktreePath)
}

// ListWorktrees returns the worktree listing exactly as git reports it.
func (repository *Repository) ListWorktrees(executionContext context.Context) (string, error) {
	executionResult, executionError := repository.gitExecutor.ExecuteGit(executionContext, repository.buildCommandDetails(gitWorktreeArgumentConstant, gitWorktreeListArgumentConstant))
	if executionError != nil {
		return "", executionError
	}
	return executionResult.StandardOutput, nil
}

// RemoveWorktree removes the linked worktree at the given path.
func (repository *Repository) RemoveWorktree(executionContext context.Context, worktreePath string) error {
	return repository.runGit(executionContext, gitWorktreeArgumentConstant, gitWorktreeRemoveArgumentConstant, worktreePath)
}

// StageAll stages every change in the working tree including deletions.
func (repository *Repository) StageAll(executionContext context.Context) error {
	return repository.runGit(executionContext, gitAddArgumentConstant, gitStageAllFlagArgumentConstant)
}

// StageFiles stages the named paths.
func (repository *Repository) StageFiles(executionContext context.Context, filePaths []string) error {
	commandArguments := append([]string{gitAddArgumentConstant, gitPathspecSeparatorArgumentConstant}, filePaths...)
	return repository.runGit(executionContext, commandArguments...)
}

// Commit records the staged changes with the supplied message.
func (repository *Repository) Commit(executionContext context.Context, commitMessage string) error {
	return repository.runGit(executionContext, gitCommitArgumentConstant, gitCommitMessageFlagArgumentConstant, commitMessage)
}

// HeadRevision resolves the commit identifier HEAD points at.
func (repository *Repository) HeadRevision(executionContext context.Context) (string, error) {
	executionResult, executionError := repository.gitExecutor.ExecuteGit(executionContext, repository.buildCommandDetails(gitRevParseArgumentConstant, gitHeadReferenceArgumentConstant))
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// Push publishes commits to the named remote, optionally targeting one branch.
func (repository *Repository) Push(executionContext context.Context, remoteName string, branchName string) error {
	commandArguments := []string{gitPushArgumentConstant, remoteName}
	if len(branchName) > 0 {
		commandArguments = append(commandArguments, branchName)
	}
	return repository.runGit(executionContext, commandArguments...)
}

// Pull integrates commits from the named remote, optionally targeting one branch.
func (repository *Repository) Pull(executionContext context.Context, remoteName string, branchName string) error {
	commandArguments := []string{gitPullArgumentConstant, remoteName}
	if len(branchName) > 0 {
		commandArguments = append(commandArguments, branchName)
	}
	return repository.runGit(executionContext, commandArguments...)
}

func (repository *Repository) runGit(executionContext context.Context, commandArguments ...string) error {
	_, executionError := repository.gitExecutor.ExecuteGit(executionContext, repository.buildCommandDetails(commandArguments...))
	return executionError
}

func (repository *Repository) buildCommandDetails(commandArguments ...string) execshell.CommandDetails {
	return execshell.CommandDetails{
		Arguments:        commandArguments,
		WorkingDirectory: repository.repositoryRoot,
		EnvironmentVariables: map[string]string{
			terminalPromptEnvironmentKeyConstant: terminalPromptDisabledValueConstant,
		},
	}
}

func (repository *Repository) currentBranchName() (string, error) {
	headReference, headError := repository.gogitRepository.Head()
	if headError != nil {
		if errors.Is(headError, plumbing.ErrReferenceNotFound) {
			return repository.unbornBranchName()
		}
		return "", fmt.Errorf(repositoryHeadResolutionTemplateConstant, headError)
	}

	if headReference.Name().IsBranch() {
		return headReference.Name().Short(), nil
	}

	abbreviatedHash := headReference.Hash().String()
	if len(abbreviatedHash) > abbreviatedDetachedHeadHashLengthConstant {
		abbreviatedHash = abbreviatedHash[:abbreviatedDetachedHeadHashLengthConstant]
	}
	return fmt.Sprintf(detachedHeadLabelTemplateConstant, abbreviatedHash), nil
}

func (repository *Repository) unbornBranchName() (string, error) {
	symbolicHead, symbolicHeadError := repository.gogitRepository.Reference(plumbing.HEAD, false)
	if symbolicHeadError != nil {
		return "", fmt.Errorf(repositoryHeadResolutionTemplateConstant, symbolicHeadError)
	}
	return symbolicHead.Target().Short(), nil
}
