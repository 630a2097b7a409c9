package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitmcp/internal/execshell"
)

const (
	missingLoggerCaseNameConstant          = "missing_logger"
	missingRunnerCaseNameConstant          = "missing_runner"
	configuredDependenciesCaseNameConstant = "configured_dependencies"
	successfulExecutionCaseNameConstant    = "successful_execution"
	nonZeroExitCaseNameConstant            = "non_zero_exit"
	runnerFailureCaseNameConstant          = "runner_failure"
	recordedStandardOutputConstant         = "stdout payload"
	recordedStandardErrorConstant          = "stderr payload"
	runnerFailureMessageConstant           = "executable not found"
)

type recordingCommandRunner struct {
	recordedCommands []execshell.ShellCommand
	result           execshell.ExecutionResult
	failure          error
}

func (runner *recordingCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	if runner.failure != nil {
		return execshell.ExecutionResult{}, runner.failure
	}
	return runner.result, nil
}

func TestNewShellExecutorValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectedError error
	}{
		{
			name:          missingLoggerCaseNameConstant,
			logger:        nil,
			runner:        &recordingCommandRunner{},
			expectedError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:          missingRunnerCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        nil,
			expectedError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          configuredDependenciesCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectedError: nil,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			executor, constructionError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectedError != nil {
				require.ErrorIs(subtest, constructionError, testCase.expectedError)
				require.Nil(subtest, executor)
				return
			}
			require.NoError(subtest, constructionError)
			require.NotNil(subtest, executor)
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name              string
		runner            *recordingCommandRunner
		expectError       bool
		expectedExitCode  int
		expectedLogLevels []zapcore.Level
	}{
		{
			name: successfulExecutionCaseNameConstant,
			runner: &recordingCommandRunner{
				result: execshell.ExecutionResult{StandardOutput: recordedStandardOutputConstant, ExitCode: 0},
			},
			expectError:       false,
			expectedExitCode:  0,
			expectedLogLevels: []zapcore.Level{zapcore.DebugLevel, zapcore.DebugLevel},
		},
		{
			name: nonZeroExitCaseNameConstant,
			runner: &recordingCommandRunner{
				result: execshell.ExecutionResult{StandardError: recordedStandardErrorConstant, ExitCode: 1},
			},
			expectError:       true,
			expectedExitCode:  1,
			expectedLogLevels: []zapcore.Level{zapcore.DebugLevel, zapcore.WarnLevel},
		},
		{
			name: runnerFailureCaseNameConstant,
			runner: &recordingCommandRunner{
				failure: errors.New(runnerFailureMessageConstant),
			},
			expectError:       true,
			expectedExitCode:  0,
			expectedLogLevels: []zapcore.Level{zapcore.DebugLevel, zapcore.ErrorLevel},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			observedCore, observedLogs := observer.New(zapcore.DebugLevel)
			executor, constructionError := execshell.NewShellExecutor(zap.New(observedCore), testCase.runner)
			require.NoError(subtest, constructionError)

			executionResult, executionError := executor.Execute(context.Background(), execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"status"}},
			})

			if testCase.expectError {
				require.Error(subtest, executionError)
			} else {
				require.NoError(subtest, executionError)
				require.Equal(subtest, recordedStandardOutputConstant, executionResult.StandardOutput)
			}
			require.Equal(subtest, testCase.expectedExitCode, executionResult.ExitCode)

			recordedEntries := observedLogs.All()
			require.Len(subtest, recordedEntries, len(testCase.expectedLogLevels))
			for entryIndex, expectedLevel := range testCase.expectedLogLevels {
				require.Equal(subtest, expectedLevel, recordedEntries[entryIndex].Level)
			}
		})
	}
}

func TestShellExecutorExecuteGitUsesGitCommandName(testInstance *testing.T) {
	runner := &recordingCommandRunner{result: execshell.ExecutionResult{ExitCode: 0}}
	executor, constructionError := execshell.NewShellExecutor(zap.NewNop(), runner)
	require.NoError(testInstance, constructionError)

	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{"rev-parse", "HEAD"}})
	require.NoError(testInstance, executionError)
	require.Len(testInstance, runner.recordedCommands, 1)
	require.Equal(testInstance, execshell.CommandGit, runner.recordedCommands[0].Name)
	require.Equal(testInstance, []string{"rev-parse", "HEAD"}, runner.recordedCommands[0].Details.Arguments)
}

type recordingCommandEventObserver struct {
	startedCommands   []execshell.ShellCommand
	completedResults  []execshell.ExecutionResult
	executionFailures []error
}

func (observerInstance *recordingCommandEventObserver) CommandStarted(command execshell.ShellCommand) {
	observerInstance.startedCommands = append(observerInstance.startedCommands, command)
}

func (observerInstance *recordingCommandEventObserver) CommandCompleted(_ execshell.ShellCommand, result execshell.ExecutionResult) {
	observerInstance.completedResults = append(observerInstance.completedResults, result)
}

func (observerInstance *recordingCommandEventObserver) CommandExecutionFailed(_ execshell.ShellCommand, failure error) {
	observerInstance.executionFailures = append(observerInstance.executionFailures, failure)
}

func TestShellExecutorNotifiesCommandEventObserver(testInstance *testing.T) {
	runner := &recordingCommandRunner{result: execshell.ExecutionResult{ExitCode: 0}}
	executor, constructionError := execshell.NewShellExecutor(zap.NewNop(), runner)
	require.NoError(testInstance, constructionError)

	eventObserver := &recordingCommandEventObserver{}
	executor.SetCommandEventObserver(eventObserver)

	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{"status"}})
	require.NoError(testInstance, executionError)
	require.Len(testInstance, eventObserver.startedCommands, 1)
	require.Len(testInstance, eventObserver.completedResults, 1)
	require.Empty(testInstance, eventObserver.executionFailures)
}
