package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitmcp/internal/dispatch"
	"github.com/temirov/gitmcp/internal/gitrepo"
	"github.com/temirov/gitmcp/internal/toolspec"
)

const (
	stubCurrentBranchConstant        = "main"
	stubCommitIdentifierConstant     = "4f2d1c0a9b8e7d6c5b4a3f2e1d0c9b8a7f6e5d4c"
	stubWorktreeListingConstant      = "/srv/repositories/primary  4f2d1c0 [main]\n"
	stubOperationFailureTextConstant = "exit status 128"
	unknownToolNameConstant          = "rebase_branch"
)

type gatewayCall struct {
	method    string
	arguments []string
}

type stubRepositoryGateway struct {
	calls          []gatewayCall
	operationError error
}

func (gateway *stubRepositoryGateway) record(method string, arguments ...string) error {
	gateway.calls = append(gateway.calls, gatewayCall{method: method, arguments: arguments})
	return gateway.operationError
}

func (gateway *stubRepositoryGateway) Status() (gitrepo.WorktreeStatus, error) {
	if recordError := gateway.record("Status"); recordError != nil {
		return gitrepo.WorktreeStatus{}, recordError
	}
	return gitrepo.WorktreeStatus{
		Branch:     stubCurrentBranchConstant,
		Clean:      true,
		Staged:     []string{},
		Modified:   []string{},
		Deleted:    []string{},
		Untracked:  []string{},
		Conflicted: []string{},
	}, nil
}

func (gateway *stubRepositoryGateway) ListBranches() (gitrepo.BranchListing, error) {
	if recordError := gateway.record("ListBranches"); recordError != nil {
		return gitrepo.BranchListing{}, recordError
	}
	return gitrepo.BranchListing{Current: stubCurrentBranchConstant, Branches: []string{"feature/login", stubCurrentBranchConstant}}, nil
}

func (gateway *stubRepositoryGateway) CreateBranch(_ context.Context, branchName string) error {
	return gateway.record("CreateBranch", branchName)
}

func (gateway *stubRepositoryGateway) CreateBranchFrom(_ context.Context, branchName string, startPoint string) error {
	return gateway.record("CreateBranchFrom", branchName, startPoint)
}

func (gateway *stubRepositoryGateway) Checkout(_ context.Context, branchName string) error {
	return gateway.record("Checkout", branchName)
}

func (gateway *stubRepositoryGateway) Merge(_ context.Context, sourceBranch string) error {
	return gateway.record("Merge", sourceBranch)
}

func (gateway *stubRepositoryGateway) AddWorktree(_ context.Context, worktreePath string, branchName string) error {
	return gateway.record("AddWorktree", worktreePath, branchName)
}

func (gateway *stubRepositoryGateway) ListWorktrees(_ context.Context) (string, error) {
	if recordError := gateway.record("ListWorktrees"); recordError != nil {
		return "", recordError
	}
	return stubWorktreeListingConstant, nil
}

func (gateway *stubRepositoryGateway) RemoveWorktree(_ context.Context, worktreePath string) error {
	return gateway.record("RemoveWorktree", worktreePath)
}

func (gateway *stubRepositoryGateway) StageAll(_ context.Context) error {
	return gateway.record("StageAll")
}

func (gateway *stubRepositoryGateway) StageFiles(_ context.Context, filePaths []string) error {
	return gateway.record("StageFiles", filePaths...)
}

func (gateway *stubRepositoryGateway) Commit(_ context.Context, commitMessage string) error {
	return gateway.record("Commit", commitMessage)
}

func (gateway *stubRepositoryGateway) HeadRevision(_ context.Context) (string, error) {
	if recordError := gateway.record("HeadRevision"); recordError != nil {
		return "", recordError
	}
	return stubCommitIdentifierConstant, nil
}

func (gateway *stubRepositoryGateway) Push(_ context.Context, remoteName string, branchName string) error {
	return gateway.record("Push", remoteName, branchName)
}

func (gateway *stubRepositoryGateway) Pull(_ context.Context, remoteName string, branchName string) error {
	return gateway.record("Pull", remoteName, branchName)
}

func (gateway *stubRepositoryGateway) calledMethods() []string {
	methodNames := []string{}
	for _, call := range gateway.calls {
		methodNames = append(methodNames, call.method)
	}
	return methodNames
}

func newTestDispatcher(testInstance *testing.T, gateway *stubRepositoryGateway) *dispatch.Dispatcher {
	dispatcher, constructionError := dispatch.NewDispatcher(
		func(context.Context) (dispatch.RepositoryGateway, error) { return gateway, nil },
		zap.NewNop(),
	)
	require.NoError(testInstance, constructionError)
	return dispatcher
}

func TestNewDispatcherValidatesDependencies(testInstance *testing.T) {
	handleFactory := func(context.Context) (dispatch.RepositoryGateway, error) {
		return &stubRepositoryGateway{}, nil
	}

	missingFactoryDispatcher, missingFactoryError := dispatch.NewDispatcher(nil, zap.NewNop())
	require.ErrorIs(testInstance, missingFactoryError, dispatch.ErrHandleFactoryNotConfigured)
	require.Nil(testInstance, missingFactoryDispatcher)

	missingLoggerDispatcher, missingLoggerError := dispatch.NewDispatcher(handleFactory, nil)
	require.ErrorIs(testInstance, missingLoggerError, dispatch.ErrLoggerNotConfigured)
	require.Nil(testInstance, missingLoggerDispatcher)
}

func TestDispatchSuccessTexts(testInstance *testing.T) {
	testCases := []struct {
		name            string
		toolName        string
		arguments       map[string]any
		expectedText    string
		expectedMethods []string
	}{
		{
			name:            "create_branch_from_current",
			toolName:        toolspec.ToolNameCreateBranch,
			arguments:       map[string]any{"branchName": "feature/login"},
			expectedText:    "Branch 'feature/login' created successfully",
			expectedMethods: []string{"CreateBranch"},
		},
		{
			name:            "create_branch_from_named_branch",
			toolName:        toolspec.ToolNameCreateBranch,
			arguments:       map[string]any{"branchName": "feature/login", "fromBranch": "develop"},
			expectedText:    "Branch 'feature/login' created successfully from 'develop'",
			expectedMethods: []string{"CreateBranchFrom"},
		},
		{
			name:            "switch_branch",
			toolName:        toolspec.ToolNameSwitchBranch,
			arguments:       map[string]any{"branchName": "  main  "},
			expectedText:    "Switched to branch 'main'",
			expectedMethods: []string{"Checkout"},
		},
		{
			name:            "merge_into_current_branch",
			toolName:        toolspec.ToolNameMergeBranch,
			arguments:       map[string]any{"sourceBranch": "feature/login"},
			expectedText:    "Merged 'feature/login' into 'current branch'",
			expectedMethods: []string{"Merge"},
		},
		{
			name:            "merge_into_named_branch",
			toolName:        toolspec.ToolNameMergeBranch,
			arguments:       map[string]any{"sourceBranch": "feature/login", "targetBranch": "main"},
			expectedText:    "Merged 'feature/login' into 'main'",
			expectedMethods: []string{"Checkout", "Merge"},
		},
		{
			name:            "create_worktree_with_derived_branch",
			toolName:        toolspec.ToolNameCreateWorktree,
			arguments:       map[string]any{"path": "worktrees/hotfix"},
			expectedText:    "Worktree created at 'worktrees/hotfix' on new branch 'hotfix'",
			expectedMethods: []string{"AddWorktree"},
		},
		{
			name:            "create_worktree_with_trailing_separator_uses_fallback_branch",
			toolName:        toolspec.ToolNameCreateWorktree,
			arguments:       map[string]any{"path": "tmp/"},
			expectedText:    "Worktree created at 'tmp/' on new branch 'worktree-branch'",
			expectedMethods: []string{"AddWorktree"},
		},
		{
			name:            "create_worktree_with_explicit_branch",
			toolName:        toolspec.ToolNameCreateWorktree,
			arguments:       map[string]any{"path": "worktrees/hotfix", "branch": "release/hotfix"},
			expectedText:    "Worktree created at 'worktrees/hotfix' on new branch 'release/hotfix'",
			expectedMethods: []string{"AddWorktree"},
		},
		{
			name:            "remove_worktree",
			toolName:        toolspec.ToolNameRemoveWorktree,
			arguments:       map[string]any{"path": "worktrees/hotfix"},
			expectedText:    "Worktree at 'worktrees/hotfix' removed successfully",
			expectedMethods: []string{"RemoveWorktree"},
		},
		{
			name:            "commit_all_changes",
			toolName:        toolspec.ToolNameCommitChanges,
			arguments:       map[string]any{"message": "update docs"},
			expectedText:    "Changes committed: " + stubCommitIdentifierConstant,
			expectedMethods: []string{"StageAll", "Commit", "HeadRevision"},
		},
		{
			name:            "commit_named_files",
			toolName:        toolspec.ToolNameCommitChanges,
			arguments:       map[string]any{"message": "update docs", "files": []any{"docs/readme.md"}},
			expectedText:    "Changes committed: " + stubCommitIdentifierConstant,
			expectedMethods: []string{"StageFiles", "Commit", "HeadRevision"},
		},
		{
			name:            "push_default_remote",
			toolName:        toolspec.ToolNamePushChanges,
			arguments:       map[string]any{},
			expectedText:    "Changes pushed to origin",
			expectedMethods: []string{"Push"},
		},
		{
			name:            "push_remote_and_branch",
			toolName:        toolspec.ToolNamePushChanges,
			arguments:       map[string]any{"remote": "upstream", "branch": "main"},
			expectedText:    "Changes pushed to upstream/main",
			expectedMethods: []string{"Push"},
		},
		{
			name:            "pull_default_remote",
			toolName:        toolspec.ToolNamePullChanges,
			arguments:       map[string]any{},
			expectedText:    "Changes pulled from origin",
			expectedMethods: []string{"Pull"},
		},
		{
			name:            "list_worktrees_returns_raw_listing",
			toolName:        toolspec.ToolNameListWorktrees,
			arguments:       map[string]any{},
			expectedText:    stubWorktreeListingConstant,
			expectedMethods: []string{"ListWorktrees"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			gateway := &stubRepositoryGateway{}
			dispatcher := newTestDispatcher(subtest, gateway)

			invocationResult := dispatcher.Dispatch(context.Background(), testCase.toolName, testCase.arguments)
			require.False(subtest, invocationResult.IsError)
			require.Equal(subtest, testCase.expectedText, invocationResult.Text)
			require.Equal(subtest, testCase.expectedMethods, gateway.calledMethods())
		})
	}
}

func TestDispatchStatusAndBranchListingsArePrettyPrinted(testInstance *testing.T) {
	gateway := &stubRepositoryGateway{}
	dispatcher := newTestDispatcher(testInstance, gateway)

	statusResult := dispatcher.Dispatch(context.Background(), toolspec.ToolNameGitStatus, map[string]any{})
	require.False(testInstance, statusResult.IsError)
	require.Contains(testInstance, statusResult.Text, "\"branch\": \""+stubCurrentBranchConstant+"\"")
	require.Contains(testInstance, statusResult.Text, "\"clean\": true")

	listingResult := dispatcher.Dispatch(context.Background(), toolspec.ToolNameListBranches, map[string]any{})
	require.False(testInstance, listingResult.IsError)
	require.Contains(testInstance, listingResult.Text, "\"current\": \""+stubCurrentBranchConstant+"\"")
	require.Contains(testInstance, listingResult.Text, "feature/login")
}

func TestDispatchFailureTexts(testInstance *testing.T) {
	testCases := []struct {
		name               string
		toolName           string
		arguments          map[string]any
		operationError     error
		expectedTextPrefix string
	}{
		{
			name:               "create_branch_validation_failure",
			toolName:           toolspec.ToolNameCreateBranch,
			arguments:          map[string]any{"branchName": "feat<ure"},
			expectedTextPrefix: "Create branch error: ",
		},
		{
			name:               "switch_branch_whitespace_failure",
			toolName:           toolspec.ToolNameSwitchBranch,
			arguments:          map[string]any{"branchName": "   "},
			expectedTextPrefix: "Switch branch error: ",
		},
		{
			name:               "merge_operation_failure",
			toolName:           toolspec.ToolNameMergeBranch,
			arguments:          map[string]any{"sourceBranch": "feature/login"},
			operationError:     errors.New(stubOperationFailureTextConstant),
			expectedTextPrefix: "Merge error: " + stubOperationFailureTextConstant,
		},
		{
			name:               "create_worktree_traversal_failure",
			toolName:           toolspec.ToolNameCreateWorktree,
			arguments:          map[string]any{"path": "../escape"},
			expectedTextPrefix: "Create worktree error: ",
		},
		{
			name:               "remove_worktree_absolute_path_failure",
			toolName:           toolspec.ToolNameRemoveWorktree,
			arguments:          map[string]any{"path": "/var/worktrees/hotfix"},
			expectedTextPrefix: "Remove worktree error: ",
		},
		{
			name:               "commit_file_entry_failure",
			toolName:           toolspec.ToolNameCommitChanges,
			arguments:          map[string]any{"message": "update docs", "files": []any{"docs/readme.md", "../escape"}},
			expectedTextPrefix: "Commit error: ",
		},
		{
			name:               "commit_arguments_decode_failure",
			toolName:           toolspec.ToolNameCommitChanges,
			arguments:          map[string]any{"message": "update docs", "files": []any{"docs/readme.md", 7}},
			expectedTextPrefix: "Commit error: invalid arguments: ",
		},
		{
			name:               "push_operation_failure",
			toolName:           toolspec.ToolNamePushChanges,
			arguments:          map[string]any{},
			operationError:     errors.New(stubOperationFailureTextConstant),
			expectedTextPrefix: "Push error: " + stubOperationFailureTextConstant,
		},
		{
			name:               "pull_operation_failure",
			toolName:           toolspec.ToolNamePullChanges,
			arguments:          map[string]any{},
			operationError:     errors.New(stubOperationFailureTextConstant),
			expectedTextPrefix: "Pull error: " + stubOperationFailureTextConstant,
		},
		{
			name:               "status_operation_failure",
			toolName:           toolspec.ToolNameGitStatus,
			arguments:          map[string]any{},
			operationError:     errors.New(stubOperationFailureTextConstant),
			expectedTextPrefix: "Status error: " + stubOperationFailureTextConstant,
		},
		{
			name:               "list_branches_operation_failure",
			toolName:           toolspec.ToolNameListBranches,
			arguments:          map[string]any{},
			operationError:     errors.New(stubOperationFailureTextConstant),
			expectedTextPrefix: "List branches error: " + stubOperationFailureTextConstant,
		},
		{
			name:               "list_worktrees_operation_failure",
			toolName:           toolspec.ToolNameListWorktrees,
			arguments:          map[string]any{},
			operationError:     errors.New(stubOperationFailureTextConstant),
			expectedTextPrefix: "List worktrees error: " + stubOperationFailureTextConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			gateway := &stubRepositoryGateway{operationError: testCase.operationError}
			dispatcher := newTestDispatcher(subtest, gateway)

			invocationResult := dispatcher.Dispatch(context.Background(), testCase.toolName, testCase.arguments)
			require.True(subtest, invocationResult.IsError)
			require.True(subtest, strings.HasPrefix(invocationResult.Text, testCase.expectedTextPrefix), invocationResult.Text)
		})
	}
}

func TestDispatchUnknownToolName(testInstance *testing.T) {
	dispatcher := newTestDispatcher(testInstance, &stubRepositoryGateway{})

	invocationResult := dispatcher.Dispatch(context.Background(), unknownToolNameConstant, map[string]any{})
	require.True(testInstance, invocationResult.IsError)
	require.Equal(testInstance, fmt.Sprintf("Unknown tool: %s", unknownToolNameConstant), invocationResult.Text)
}

func TestDispatchHandleFactoryFailureIsReportedPerTool(testInstance *testing.T) {
	bindFailure := errors.New("unable to open repository at /missing: repository does not exist")
	dispatcher, constructionError := dispatch.NewDispatcher(
		func(context.Context) (dispatch.RepositoryGateway, error) { return nil, bindFailure },
		zap.NewNop(),
	)
	require.NoError(testInstance, constructionError)

	invocationResult := dispatcher.Dispatch(context.Background(), toolspec.ToolNameGitStatus, map[string]any{})
	require.True(testInstance, invocationResult.IsError)
	require.Equal(testInstance, "Status error: "+bindFailure.Error(), invocationResult.Text)
}

func TestEveryRegisteredToolIsDispatchable(testInstance *testing.T) {
	requiredArgumentsByTool := map[string]map[string]any{
		toolspec.ToolNameCreateBranch:   {"branchName": "feature/login"},
		toolspec.ToolNameSwitchBranch:   {"branchName": "main"},
		toolspec.ToolNameMergeBranch:    {"sourceBranch": "feature/login"},
		toolspec.ToolNameCreateWorktree: {"path": "worktrees/hotfix"},
		toolspec.ToolNameRemoveWorktree: {"path": "worktrees/hotfix"},
		toolspec.ToolNameCommitChanges:  {"message": "update docs"},
	}

	for _, descriptor := range toolspec.Registry() {
		dispatcher := newTestDispatcher(testInstance, &stubRepositoryGateway{})

		toolArguments, argumentsProvided := requiredArgumentsByTool[descriptor.Name]
		if !argumentsProvided {
			toolArguments = map[string]any{}
		}

		invocationResult := dispatcher.Dispatch(context.Background(), descriptor.Name, toolArguments)
		require.False(testInstance, strings.HasPrefix(invocationResult.Text, "Unknown tool:"), descriptor.Name)
		require.False(testInstance, invocationResult.IsError, descriptor.Name)
	}
}
