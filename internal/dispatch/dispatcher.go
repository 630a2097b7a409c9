package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/temirov/gitmcp/internal/gitrepo"
	"github.com/temirov/gitmcp/internal/toolspec"
	"github.com/temirov/gitmcp/internal/validation"
)

const (
	handleFactoryNotConfiguredMessageConstant  = "repository handle factory not configured"
	dispatchLoggerNotConfiguredMessageConstant = "logger not configured"
	failureTextTemplateConstant                = "%s error: %s"
	unknownToolTextTemplateConstant            = "Unknown tool: %s"
	argumentsDecodeErrorTemplateConstant       = "invalid arguments: %s"
	resultEncodingErrorTemplateConstant        = "unable to encode result: %s"
	statusActionLabelConstant                  = "Status"
	createBranchActionLabelConstant            = "Create branch"
	switchBranchActionLabelConstant            = "Switch branch"
	listBranchesActionLabelConstant            = "List branches"
	mergeActionLabelConstant                   = "Merge"
	createWorktreeActionLabelConstant          = "Create worktree"
	listWorktreesActionLabelConstant           = "List worktrees"
	removeWorktreeActionLabelConstant          = "Remove worktree"
	commitActionLabelConstant                  = "Commit"
	pushActionLabelConstant                    = "Push"
	pullActionLabelConstant                    = "Pull"
	createBranchSuccessTemplateConstant        = "Branch '%s' created successfully"
	createBranchFromSuffixTemplateConstant     = " from '%s'"
	switchBranchSuccessTemplateConstant        = "Switched to branch '%s'"
	mergeSuccessTemplateConstant               = "Merged '%s' into '%s'"
	mergeCurrentBranchLabelConstant            = "current branch"
	createWorktreeSuccessTemplateConstant      = "Worktree created at '%s' on new branch '%s'"
	removeWorktreeSuccessTemplateConstant      = "Worktree at '%s' removed successfully"
	commitSuccessTemplateConstant              = "Changes committed: %s"
	pushSuccessTemplateConstant                = "Changes pushed to %s"
	pullSuccessTemplateConstant                = "Changes pulled from %s"
	remoteBranchSuffixTemplateConstant         = "/%s"
	defaultRemoteNameConstant                  = "origin"
	worktreeBranchFallbackNameConstant         = "worktree-branch"
	worktreePathSegmentSeparatorConstant       = "/"
	jsonIndentConstant                         = "  "
	toolNameLogFieldConstant                   = "tool"
	failureTextLogFieldConstant                = "failure"
	dispatchingMessageConstant                 = "Dispatching tool call"
	dispatchFailedMessageConstant              = "Tool call failed"
)

// ErrHandleFactoryNotConfigured indicates a dispatcher was constructed without a repository handle factory.
var ErrHandleFactoryNotConfigured = errors.New(handleFactoryNotConfiguredMessageConstant)

// ErrLoggerNotConfigured indicates a dispatcher was constructed without a logger.
var ErrLoggerNotConfigured = errors.New(dispatchLoggerNotConfiguredMessageConstant)

// Result carries the outcome of one tool invocation.
type Result struct {
	Text    string
	IsError bool
}

// RepositoryGateway exposes the repository operations the dispatcher invokes.
type RepositoryGateway interface {
	Status() (gitrepo.WorktreeStatus, error)
	ListBranches() (gitrepo.BranchListing, error)
	CreateBranch(executionContext context.Context, branchName string) error
	CreateBranchFrom(executionContext context.Context, branchName string, startPoint string) error
	Checkout(executionContext context.Context, branchName string) error
	Merge(executionContext context.Context, sourceBranch string) error
	AddWorktree(executionContext context.Context, worktreePath string, branchName string) error
	ListWorktrees(executionContext context.Context) (string, error)
	RemoveWorktree(executionContext context.Context, worktreePath string) error
	StageAll(executionContext context.Context) error
	StageFiles(executionContext context.Context, filePaths []string) error
	Commit(executionContext context.Context, commitMessage string) error
	HeadRevision(executionContext context.Context) (string, error)
	Push(executionContext context.Context, remoteName string, branchName string) error
	Pull(executionContext context.Context, remoteName string, branchName string) error
}

// HandleFactory binds the configured repository root to a gateway on demand.
type HandleFactory func(executionContext context.Context) (RepositoryGateway, error)

// Dispatcher routes tool invocations to repository operations.
type Dispatcher struct {
	handleFactory HandleFactory
	logger        *zap.Logger
}

// NewDispatcher constructs a Dispatcher and validates its dependencies.
func NewDispatcher(handleFactory HandleFactory, logger *zap.Logger) (*Dispatcher, error) {
	if handleFactory == nil {
		return nil, ErrHandleFactoryNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &Dispatcher{handleFactory: handleFactory, logger: logger}, nil
}

type createBranchArguments struct {
	BranchName string `mapstructure:"branchName"`
	FromBranch string `mapstructure:"fromBranch"`
}

type switchBranchArguments struct {
	BranchName string `mapstructure:"branchName"`
}

type mergeBranchArguments struct {
	SourceBranch string `mapstructure:"sourceBranch"`
	TargetBranch string `mapstructure:"targetBranch"`
}

type createWorktreeArguments struct {
	Path   string `mapstructure:"path"`
	Branch string `mapstructure:"branch"`
}

type removeWorktreeArguments struct {
	Path string `mapstructure:"path"`
}

type commitChangesArguments struct {
	Message string   `mapstructure:"message"`
	Files   []string `mapstructure:"files"`
}

type remoteSyncArguments struct {
	Remote string `mapstructure:"remote"`
	Branch string `mapstructure:"branch"`
}

// Dispatch executes the named tool against the bound repository and always
// returns a well-formed result.
func (dispatcher *Dispatcher) Dispatch(executionContext context.Context, toolName string, arguments map[string]any) Result {
	dispatcher.logger.Debug(dispatchingMessageConstant, zap.String(toolNameLogFieldConstant, toolName))

	var invocationResult Result
	switch toolName {
	case toolspec.ToolNameGitStatus:
		invocationResult = dispatcher.dispatchGitStatus(executionContext)
	case toolspec.ToolNameCreateBranch:
		invocationResult = dispatcher.dispatchCreateBranch(executionContext, arguments)
	case toolspec.ToolNameSwitchBranch:
		invocationResult = dispatcher.dispatchSwitchBranch(executionContext, arguments)
	case toolspec.ToolNameListBranches:
		invocationResult = dispatcher.dispatchListBranches(executionContext)
	case toolspec.ToolNameMergeBranch:
		invocationResult = dispatcher.dispatchMergeBranch(executionContext, arguments)
	case toolspec.ToolNameCreateWorktree:
		invocationResult = dispatcher.dispatchCreateWorktree(executionContext, arguments)
	case toolspec.ToolNameListWorktrees:
		invocationResult = dispatcher.dispatchListWorktrees(executionContext)
	case toolspec.ToolNameRemoveWorktree:
		invocationResult = dispatcher.dispatchRemoveWorktree(executionContext, arguments)
	case toolspec.ToolNameCommitChanges:
		invocationResult = dispatcher.dispatchCommitChanges(executionContext, arguments)
	case toolspec.ToolNamePushChanges:
		invocationResult = dispatcher.dispatchPushChanges(executionContext, arguments)
	case toolspec.ToolNamePullChanges:
		invocationResult = dispatcher.dispatchPullChanges(executionContext, arguments)
	default:
		invocationResult = Result{Text: fmt.Sprintf(unknownToolTextTemplateConstant, toolName), IsError: true}
	}

	if invocationResult.IsError {
		dispatcher.logger.Warn(dispatchFailedMessageConstant,
			zap.String(toolNameLogFieldConstant, toolName),
			zap.String(failureTextLogFieldConstant, invocationResult.Text),
		)
	}
	return invocationResult
}

func (dispatcher *Dispatcher) dispatchGitStatus(executionContext context.Context) Result {
	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(statusActionLabelConstant, bindError)
	}

	worktreeStatus, statusError := repositoryGateway.Status()
	if statusError != nil {
		return failureResult(statusActionLabelConstant, statusError)
	}

	return encodedResult(statusActionLabelConstant, worktreeStatus)
}

func (dispatcher *Dispatcher) dispatchCreateBranch(executionContext context.Context, arguments map[string]any) Result {
	toolArguments := createBranchArguments{}
	if decodeError := decodeArguments(arguments, &toolArguments); decodeError != nil {
		return failureResult(createBranchActionLabelConstant, decodeError)
	}

	validatedBranchName, branchNameError := validation.ValidateBranchName(toolArguments.BranchName)
	if branchNameError != nil {
		return failureResult(createBranchActionLabelConstant, branchNameError)
	}

	validatedFromBranch := ""
	if len(toolArguments.FromBranch) > 0 {
		fromBranchName, fromBranchError := validation.ValidateBranchName(toolArguments.FromBranch)
		if fromBranchError != nil {
			return failureResult(createBranchActionLabelConstant, fromBranchError)
		}
		validatedFromBranch = fromBranchName
	}

	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(createBranchActionLabelConstant, bindError)
	}

	if len(validatedFromBranch) > 0 {
		if creationError := repositoryGateway.CreateBranchFrom(executionContext, validatedBranchName, validatedFromBranch); creationError != nil {
			return failureResult(createBranchActionLabelConstant, creationError)
		}
		successText := fmt.Sprintf(createBranchSuccessTemplateConstant, validatedBranchName) + fmt.Sprintf(createBranchFromSuffixTemplateConstant, validatedFromBranch)
		return Result{Text: successText}
	}

	if creationError := repositoryGateway.CreateBranch(executionContext, validatedBranchName); creationError != nil {
		return failureResult(createBranchActionLabelConstant, creationError)
	}
	return Result{Text: fmt.Sprintf(createBranchSuccessTemplateConstant, validatedBranchName)}
}

func (dispatcher *Dispatcher) dispatchSwitchBranch(executionContext context.Context, arguments map[string]any) Result {
	toolArguments := switchBranchArguments{}
	if decodeError := decodeArguments(arguments, &toolArguments); decodeError != nil {
		return failureResult(switchBranchActionLabelConstant, decodeError)
	}

	validatedBranchName, branchNameError := validation.ValidateBranchName(toolArguments.BranchName)
	if branchNameError != nil {
		return failureResult(switchBranchActionLabelConstant, branchNameError)
	}

	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(switchBranchActionLabelConstant, bindError)
	}

	if checkoutError := repositoryGateway.Checkout(executionContext, validatedBranchName); checkoutError != nil {
		return failureResult(switchBranchActionLabelConstant, checkoutError)
	}
	return Result{Text: fmt.Sprintf(switchBranchSuccessTemplateConstant, validatedBranchName)}
}

func (dispatcher *Dispatcher) dispatchListBranches(executionContext context.Context) Result {
	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(listBranchesActionLabelConstant, bindError)
	}

	branchListing, listingError := repositoryGateway.ListBranches()
	if listingError != nil {
		return failureResult(listBranchesActionLabelConstant, listingError)
	}

	return encodedResult(listBranchesActionLabelConstant, branchListing)
}

func (dispatcher *Dispatcher) dispatchMergeBranch(executionContext context.Context, arguments map[string]any) Result {
	toolArguments := mergeBranchArguments{}
	if decodeError := decodeArguments(arguments, &toolArguments); decodeError != nil {
		return failureResult(mergeActionLabelConstant, decodeError)
	}

	validatedSourceBranch, sourceBranchError := validation.ValidateBranchName(toolArguments.SourceBranch)
	if sourceBranchError != nil {
		return failureResult(mergeActionLabelConstant, sourceBranchError)
	}

	validatedTargetBranch := ""
	if len(toolArguments.TargetBranch) > 0 {
		targetBranchName, targetBranchError := validation.ValidateBranchName(toolArguments.TargetBranch)
		if targetBranchError != nil {
			return failureResult(mergeActionLabelConstant, targetBranchError)
		}
		validatedTargetBranch = targetBranchName
	}

	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(mergeActionLabelConstant, bindError)
	}

	if len(validatedTargetBranch) > 0 {
		if checkoutError := repositoryGateway.Checkout(executionContext, validatedTargetBranch); checkoutError != nil {
			return failureResult(mergeActionLabelConstant, checkoutError)
		}
	}

	if mergeError := repositoryGateway.Merge(executionContext, validatedSourceBranch); mergeError != nil {
		return failureResult(mergeActionLabelConstant, mergeError)
	}

	mergeTargetLabel := validatedTargetBranch
	if len(mergeTargetLabel) == 0 {
		mergeTargetLabel = mergeCurrentBranchLabelConstant
	}
	return Result{Text: fmt.Sprintf(mergeSuccessTemplateConstant, validatedSourceBranch, mergeTargetLabel)}
}

func (dispatcher *Dispatcher) dispatchCreateWorktree(executionContext context.Context, arguments map[string]any) Result {
	toolArguments := createWorktreeArguments{}
	if decodeError := decodeArguments(arguments, &toolArguments); decodeError != nil {
		return failureResult(createWorktreeActionLabelConstant, decodeError)
	}

	validatedWorktreePath, worktreePathError := validation.ValidateRelativePath(toolArguments.Path)
	if worktreePathError != nil {
		return failureResult(createWorktreeActionLabelConstant, worktreePathError)
	}

	worktreeBranchName := ""
	if len(toolArguments.Branch) > 0 {
		validatedBranchName, branchNameError := validation.ValidateBranchName(toolArguments.Branch)
		if branchNameError != nil {
			return failureResult(createWorktreeActionLabelConstant, branchNameError)
		}
		worktreeBranchName = validatedBranchName
	} else {
		worktreeBranchName = deriveWorktreeBranchName(validatedWorktreePath)
	}

	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(createWorktreeActionLabelConstant, bindError)
	}

	if worktreeError := repositoryGateway.AddWorktree(executionContext, validatedWorktreePath, worktreeBranchName); worktreeError != nil {
		return failureResult(createWorktreeActionLabelConstant, worktreeError)
	}
	return Result{Text: fmt.Sprintf(createWorktreeSuccessTemplateConstant, validatedWorktreePath, worktreeBranchName)}
}

func (dispatcher *Dispatcher) dispatchListWorktrees(executionContext context.Context) Result {
	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(listWorktreesActionLabelConstant, bindError)
	}

	worktreeListing, listingError := repositoryGateway.ListWorktrees(executionContext)
	if listingError != nil {
		return failureResult(listWorktreesActionLabelConstant, listingError)
	}
	return Result{Text: worktreeListing}
}

func (dispatcher *Dispatcher) dispatchRemoveWorktree(executionContext context.Context, arguments map[string]any) Result {
	toolArguments := removeWorktreeArguments{}
	if decodeError := decodeArguments(arguments, &toolArguments); decodeError != nil {
		return failureResult(removeWorktreeActionLabelConstant, decodeError)
	}

	validatedWorktreePath, worktreePathError := validation.ValidateRelativePath(toolArguments.Path)
	if worktreePathError != nil {
		return failureResult(removeWorktreeActionLabelConstant, worktreePathError)
	}

	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(removeWorktreeActionLabelConstant, bindError)
	}

	if removalError := repositoryGateway.RemoveWorktree(executionContext, validatedWorktreePath); removalError != nil {
		return failureResult(removeWorktreeActionLabelConstant, removalError)
	}
	return Result{Text: fmt.Sprintf(removeWorktreeSuccessTemplateConstant, validatedWorktreePath)}
}

func (dispatcher *Dispatcher) dispatchCommitChanges(executionContext context.Context, arguments map[string]any) Result {
	toolArguments := commitChangesArguments{}
	if decodeError := decodeArguments(arguments, &toolArguments); decodeError != nil {
		return failureResult(commitActionLabelConstant, decodeError)
	}

	validatedCommitMessage, commitMessageError := validation.ValidateCommitMessage(toolArguments.Message)
	if commitMessageError != nil {
		return failureResult(commitActionLabelConstant, commitMessageError)
	}

	validatedFilePaths := []string{}
	if len(toolArguments.Files) > 0 {
		filePaths, fileListError := validation.ValidateFileList(toolArguments.Files)
		if fileListError != nil {
			return failureResult(commitActionLabelConstant, fileListError)
		}
		validatedFilePaths = filePaths
	}

	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(commitActionLabelConstant, bindError)
	}

	if len(validatedFilePaths) > 0 {
		if stagingError := repositoryGateway.StageFiles(executionContext, validatedFilePaths); stagingError != nil {
			return failureResult(commitActionLabelConstant, stagingError)
		}
	} else {
		if stagingError := repositoryGateway.StageAll(executionContext); stagingError != nil {
			return failureResult(commitActionLabelConstant, stagingError)
		}
	}

	if commitError := repositoryGateway.Commit(executionContext, validatedCommitMessage); commitError != nil {
		return failureResult(commitActionLabelConstant, commitError)
	}

	commitIdentifier, revisionError := repositoryGateway.HeadRevision(executionContext)
	if revisionError != nil {
		return failureResult(commitActionLabelConstant, revisionError)
	}
	return Result{Text: fmt.Sprintf(commitSuccessTemplateConstant, commitIdentifier)}
}

func (dispatcher *Dispatcher) dispatchPushChanges(executionContext context.Context, arguments map[string]any) Result {
	toolArguments := remoteSyncArguments{}
	if decodeError := decodeArguments(arguments, &toolArguments); decodeError != nil {
		return failureResult(pushActionLabelConstant, decodeError)
	}

	remoteName, branchName := resolveRemoteAndBranch(toolArguments)

	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(pushActionLabelConstant, bindError)
	}

	if pushError := repositoryGateway.Push(executionContext, remoteName, branchName); pushError != nil {
		return failureResult(pushActionLabelConstant, pushError)
	}
	return Result{Text: fmt.Sprintf(pushSuccessTemplateConstant, formatRemoteTarget(remoteName, branchName))}
}

func (dispatcher *Dispatcher) dispatchPullChanges(executionContext context.Context, arguments map[string]any) Result {
	toolArguments := remoteSyncArguments{}
	if decodeError := decodeArguments(arguments, &toolArguments); decodeError != nil {
		return failureResult(pullActionLabelConstant, decodeError)
	}

	remoteName, branchName := resolveRemoteAndBranch(toolArguments)

	repositoryGateway, bindError := dispatcher.handleFactory(executionContext)
	if bindError != nil {
		return failureResult(pullActionLabelConstant, bindError)
	}

	if pullError := repositoryGateway.Pull(executionContext, remoteName, branchName); pullError != nil {
		return failureResult(pullActionLabelConstant, pullError)
	}
	return Result{Text: fmt.Sprintf(pullSuccessTemplateConstant, formatRemoteTarget(remoteName, branchName))}
}

func decodeArguments(arguments map[string]any, targetArguments any) error {
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: targetArguments})
	if decoderError != nil {
		return fmt.Errorf(argumentsDecodeErrorTemplateConstant, decoderError)
	}
	if decodeError := decoder.Decode(arguments); decodeError != nil {
		return fmt.Errorf(argumentsDecodeErrorTemplateConstant, decodeError)
	}
	return nil
}

func failureResult(actionLabel string, failure error) Result {
	return Result{Text: fmt.Sprintf(failureTextTemplateConstant, actionLabel, failure.Error()), IsError: true}
}

func encodedResult(actionLabel string, payload any) Result {
	encodedPayload, encodingError := json.MarshalIndent(payload, "", jsonIndentConstant)
	if encodingError != nil {
		return failureResult(actionLabel, fmt.Errorf(resultEncodingErrorTemplateConstant, encodingError))
	}
	return Result{Text: string(encodedPayload)}
}

func resolveRemoteAndBranch(toolArguments remoteSyncArguments) (string, string) {
	remoteName := strings.TrimSpace(toolArguments.Remote)
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}
	return remoteName, strings.TrimSpace(toolArguments.Branch)
}

func formatRemoteTarget(remoteName string, branchName string) string {
	if len(branchName) == 0 {
		return remoteName
	}
	return remoteName + fmt.Sprintf(remoteBranchSuffixTemplateConstant, branchName)
}

func deriveWorktreeBranchName(validatedWorktreePath string) string {
	pathSegments := strings.Split(validatedWorktreePath, worktreePathSegmentSeparatorConstant)
	finalSegment := strings.TrimSpace(pathSegments[len(pathSegments)-1])
	if len(finalSegment) == 0 {
		return worktreeBranchFallbackNameConstant
	}
	return finalSegment
}
