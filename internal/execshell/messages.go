package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitCheckoutSubcommandNameConstant = "checkout"
	gitMergeSubcommandNameConstant    = "merge"
	gitWorktreeSubcommandNameConstant = "worktree"
	gitAddSubcommandNameConstant      = "add"
	gitCommitSubcommandNameConstant   = "commit"
	gitPushSubcommandNameConstant     = "push"
	gitPullSubcommandNameConstant     = "pull"
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitNewBranchFlagConstant          = "-b"
	gitMessageFlagConstant            = "-m"
	gitWorktreeAddActionConstant      = "add"
	gitWorktreeListActionConstant     = "list"
	gitWorktreeRemoveActionConstant   = "remove"
)

const (
	gitCheckoutStartTemplateConstant                  = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant                = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant                = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplateConstant       = "Unable to switch %s to branch %s: %s"
	gitBranchCreationStartTemplateConstant            = "Creating branch %s in %s"
	gitBranchCreationFromStartTemplateConstant        = "Creating branch %s from %s in %s"
	gitBranchCreationSuccessTemplateConstant          = "Created branch %s in %s"
	gitBranchCreationFromSuccessTemplateConstant      = "Created branch %s from %s in %s"
	gitBranchCreationFailureTemplateConstant          = "Failed to create branch %s in %s (exit code %d%s)"
	gitBranchCreationExecutionFailureTemplateConstant = "Unable to create branch %s in %s: %s"
	gitMergeStartTemplateConstant                     = "Merging %s in %s"
	gitMergeSuccessTemplateConstant                   = "Merged %s in %s"
	gitMergeFailureTemplateConstant                   = "Failed to merge %s in %s (exit code %d%s)"
	gitMergeExecutionFailureTemplateConstant          = "Unable to merge %s in %s: %s"
	gitWorktreeAddStartTemplateConstant               = "Adding worktree %s in %s"
	gitWorktreeAddSuccessTemplateConstant             = "Added worktree %s in %s"
	gitWorktreeAddFailureTemplateConstant             = "Failed to add worktree %s in %s (exit code %d%s)"
	gitWorktreeAddExecutionFailureTemplateConstant    = "Unable to add worktree %s in %s: %s"
	gitWorktreeListStartTemplateConstant              = "Listing worktrees in %s"
	gitWorktreeListSuccessTemplateConstant            = "Listed worktrees in %s"
	gitWorktreeListFailureTemplateConstant            = "Failed to list worktrees in %s (exit code %d%s)"
	gitWorktreeListExecutionFailureTemplateConstant   = "Unable to list worktrees in %s: %s"
	gitWorktreeRemoveStartTemplateConstant            = "Removing worktree %s in %s"
	gitWorktreeRemoveSuccessTemplateConstant          = "Removed worktree %s in %s"
	gitWorktreeRemoveFailureTemplateConstant          = "Failed to remove worktree %s in %s (exit code %d%s)"
	gitWorktreeRemoveExecutionFailureTemplateConstant = "Unable to remove worktree %s in %s: %s"
	gitStageAllChangesLabelConstant                   = "all changes"
	gitAddStartTemplateConstant                       = "Staging %s in %s"
	gitAddSuccessTemplateConstant                     = "Staged %s in %s"
	gitAddFailureTemplateConstant                     = "Failed to stage %s in %s (exit code %d%s)"
	gitAddExecutionFailureTemplateConstant            = "Unable to stage %s in %s: %s"
	gitCommitStartTemplateConstant                    = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant                  = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant                  = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant         = "Unable to create commit in %s with message %q: %s"
	gitPushStartTemplateConstant                      = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant                    = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant                    = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant           = "Unable to push %s to %s from %s: %s"
	gitPushCurrentBranchLabelConstant                 = "current branch"
	gitPullStartTemplateConstant                      = "Pulling %s from %s in %s"
	gitPullSuccessTemplateConstant                    = "Pulled %s from %s in %s"
	gitPullFailureTemplateConstant                    = "Failed to pull %s from %s in %s (exit code %d%s)"
	gitPullExecutionFailureTemplateConstant           = "Unable to pull %s from %s in %s: %s"
	gitPullTrackedBranchLabelConstant                 = "tracked branch"
	gitRevisionStartTemplateConstant                  = "Resolving %s in %s"
	gitRevisionSuccessTemplateConstant                = "%s in %s resolved to %s"
	gitRevisionEmptySuccessTemplateConstant           = "%s in %s did not resolve to a revision"
	gitRevisionFailureTemplateConstant                = "Failed to resolve %s in %s (exit code %d%s)"
	gitRevisionExecutionFailureTemplateConstant       = "Unable to resolve %s in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeGitCheckoutMessage(command, result, failure, stage)
	case gitMergeSubcommandNameConstant:
		return formatter.describeGitMergeMessage(command, result, failure, stage)
	case gitWorktreeSubcommandNameConstant:
		return formatter.describeGitWorktreeMessage(command, result, failure, stage)
	case gitAddSubcommandNameConstant:
		return formatter.describeGitAddMessage(command, result, failure, stage)
	case gitCommitSubcommandNameConstant:
		return formatter.describeGitCommitMessage(command, result, failure, stage)
	case gitPushSubcommandNameConstant:
		return formatter.describeGitPushMessage(command, result, failure, stage)
	case gitPullSubcommandNameConstant:
		return formatter.describeGitPullMessage(command, result, failure, stage)
	case gitRevParseSubcommandNameConstant:
		return formatter.describeGitRevParseMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCheckoutMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	if containsArgument(arguments, gitNewBranchFlagConstant) {
		branchName := formatter.ensureValue(formatter.argumentAfterFlag(arguments, gitNewBranchFlagConstant))
		startPoint := formatter.extractBranchStartPoint(arguments)
		switch stage {
		case messageStageStart:
			if len(startPoint) > 0 {
				return fmt.Sprintf(gitBranchCreationFromStartTemplateConstant, branchName, startPoint, workingDirectory)
			}
			return fmt.Sprintf(gitBranchCreationStartTemplateConstant, branchName, workingDirectory)
		case messageStageSuccess:
			if len(startPoint) > 0 {
				return fmt.Sprintf(gitBranchCreationFromSuccessTemplateConstant, branchName, startPoint, workingDirectory)
			}
			return fmt.Sprintf(gitBranchCreationSuccessTemplateConstant, branchName, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitBranchCreationFailureTemplateConstant, branchName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitBranchCreationExecutionFailureTemplateConstant, branchName, workingDirectory, formatter.describeFailure(failure))
		}
	}

	branchName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCheckoutStartTemplateConstant, workingDirectory, branchName)
	case messageStageSuccess:
		return fmt.Sprintf(gitCheckoutSuccessTemplateConstant, workingDirectory, branchName)
	case messageStageFailure:
		return fmt.Sprintf(gitCheckoutFailureTemplateConstant, workingDirectory, branchName, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCheckoutExecutionFailureTemplateConstant, workingDirectory, branchName, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMergeMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	sourceBranch := formatter.ensureValue(formatter.extractFirstNonFlagArgument(command.Details.Arguments[1:]))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitMergeStartTemplateConstant, sourceBranch, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitMergeSuccessTemplateConstant, sourceBranch, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitMergeFailureTemplateConstant, sourceBranch, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitMergeExecutionFailureTemplateConstant, sourceBranch, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitWorktreeMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	worktreeAction := strings.TrimSpace(formatter.argumentAtIndex(arguments, 1))

	switch worktreeAction {
	case gitWorktreeAddActionConstant:
		worktreePath := formatter.ensureValue(formatter.extractLastNonFlagArgument(arguments[2:]))
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitWorktreeAddStartTemplateConstant, worktreePath, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitWorktreeAddSuccessTemplateConstant, worktreePath, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitWorktreeAddFailureTemplateConstant, worktreePath, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitWorktreeAddExecutionFailureTemplateConstant, worktreePath, workingDirectory, formatter.describeFailure(failure))
		}
	case gitWorktreeListActionConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitWorktreeListStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitWorktreeListSuccessTemplateConstant, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitWorktreeListFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitWorktreeListExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
		}
	case gitWorktreeRemoveActionConstant:
		worktreePath := formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments[2:]))
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitWorktreeRemoveStartTemplateConstant, worktreePath, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitWorktreeRemoveSuccessTemplateConstant, worktreePath, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitWorktreeRemoveFailureTemplateConstant, worktreePath, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitWorktreeRemoveExecutionFailureTemplateConstant, worktreePath, workingDirectory, formatter.describeFailure(failure))
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitAddMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	stagedTarget := formatter.extractFirstNonFlagArgument(command.Details.Arguments[1:])
	if len(stagedTarget) == 0 {
		stagedTarget = gitStageAllChangesLabelConstant
	}
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitAddStartTemplateConstant, stagedTarget, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitAddSuccessTemplateConstant, stagedTarget, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitAddFailureTemplateConstant, stagedTarget, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitAddExecutionFailureTemplateConstant, stagedTarget, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCommitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	commitMessage := formatter.argumentAfterFlag(command.Details.Arguments, gitMessageFlagConstant)
	if len(commitMessage) == 0 {
		commitMessage = fallbackUnknownValueLabelConstant
	}
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCommitStartTemplateConstant, workingDirectory, commitMessage)
	case messageStageSuccess:
		return fmt.Sprintf(gitCommitSuccessTemplateConstant, workingDirectory, commitMessage)
	case messageStageFailure:
		return fmt.Sprintf(gitCommitFailureTemplateConstant, workingDirectory, commitMessage, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCommitExecutionFailureTemplateConstant, workingDirectory, commitMessage, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitPushMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	arguments := command.Details.Arguments
	remoteName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
	branchReference := strings.TrimSpace(formatter.argumentAtIndex(arguments, 2))
	if len(branchReference) == 0 {
		branchReference = gitPushCurrentBranchLabelConstant
	}
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitPushStartTemplateConstant, branchReference, remoteName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitPushSuccessTemplateConstant, branchReference, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitPushFailureTemplateConstant, branchReference, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitPushExecutionFailureTemplateConstant, branchReference, remoteName, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitPullMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	arguments := command.Details.Arguments
	remoteName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
	branchReference := strings.TrimSpace(formatter.argumentAtIndex(arguments, 2))
	if len(branchReference) == 0 {
		branchReference = gitPullTrackedBranchLabelConstant
	}
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitPullStartTemplateConstant, branchReference, remoteName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitPullSuccessTemplateConstant, branchReference, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitPullFailureTemplateConstant, branchReference, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitPullExecutionFailureTemplateConstant, branchReference, remoteName, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRevParseMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	reference := formatter.ensureValue(formatter.extractLastNonFlagArgument(command.Details.Arguments[1:]))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRevisionStartTemplateConstant, reference, workingDirectory)
	case messageStageSuccess:
		trimmedOutput := strings.TrimSpace(result.StandardOutput)
		if len(trimmedOutput) == 0 {
			return fmt.Sprintf(gitRevisionEmptySuccessTemplateConstant, reference, workingDirectory)
		}
		return fmt.Sprintf(gitRevisionSuccessTemplateConstant, reference, workingDirectory, trimmedOutput)
	case messageStageFailure:
		return fmt.Sprintf(gitRevisionFailureTemplateConstant, reference, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitRevisionExecutionFailureTemplateConstant, reference, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) argumentAfterFlag(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmedValue
}

func (formatter CommandMessageFormatter) extractFirstNonFlagArgument(arguments []string) string {
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedArgument, "-") {
			continue
		}
		return trimmedArgument
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) extractLastNonFlagArgument(arguments []string) string {
	for index := len(arguments) - 1; index >= 0; index-- {
		trimmedArgument := strings.TrimSpace(arguments[index])
		if len(trimmedArgument) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedArgument, "-") {
			continue
		}
		return trimmedArgument
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) extractBranchStartPoint(arguments []string) string {
	branchFlagIndex := -1
	for index := range arguments {
		if strings.TrimSpace(arguments[index]) == gitNewBranchFlagConstant {
			branchFlagIndex = index
			break
		}
	}
	if branchFlagIndex == -1 || branchFlagIndex+2 >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[branchFlagIndex+2])
}
