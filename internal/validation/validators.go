package validation

import (
	"fmt"
	"strings"
)

const (
	dangerousCharacterSetConstant              = "<>|&;$`"
	forwardSlashConstant                       = "/"
	backslashConstant                          = "\\"
	traversalSequenceConstant                  = ".."
	driveLetterSeparatorConstant               = ':'
	pathRequiredMessageConstant                = "path must be a non-empty string"
	pathTraversalMessageTemplateConstant       = "path %q must not contain '..' traversal sequences"
	pathAbsoluteMessageTemplateConstant        = "path %q must be relative to the repository root"
	branchNameRequiredMessageConstant          = "branch name must be a non-empty string"
	branchNameWhitespaceMessageConstant        = "branch name must not consist solely of whitespace"
	branchNameTraversalMessageTemplateConstant = "branch name %q must not contain '..'"
	commitMessageRequiredMessageConstant       = "commit message must be a non-empty string"
	dangerousCharactersMessageTemplateConstant = "%s %q contains dangerous characters"
	fileEntryMessageTemplateConstant           = "file %q: %s"
	pathSubjectLabelConstant                   = "path"
	branchNameSubjectLabelConstant             = "branch name"
	commitMessageSubjectLabelConstant          = "commit message"
)

// InputError reports an input that failed validation.
type InputError struct {
	Message string
}

// Error describes the validation failure.
func (inputError InputError) Error() string {
	return inputError.Message
}

// ValidateRelativePath ensures the candidate is a safe repository-relative path and returns it unchanged.
func ValidateRelativePath(candidate string) (string, error) {
	if len(candidate) == 0 {
		return "", InputError{Message: pathRequiredMessageConstant}
	}
	if strings.Contains(candidate, traversalSequenceConstant) {
		return "", InputError{Message: fmt.Sprintf(pathTraversalMessageTemplateConstant, candidate)}
	}
	if strings.HasPrefix(candidate, forwardSlashConstant) || strings.HasPrefix(candidate, backslashConstant) {
		return "", InputError{Message: fmt.Sprintf(pathAbsoluteMessageTemplateConstant, candidate)}
	}
	if hasDriveLetterPrefix(candidate) {
		return "", InputError{Message: fmt.Sprintf(pathAbsoluteMessageTemplateConstant, candidate)}
	}
	if strings.ContainsAny(candidate, dangerousCharacterSetConstant) {
		return "", InputError{Message: fmt.Sprintf(dangerousCharactersMessageTemplateConstant, pathSubjectLabelConstant, candidate)}
	}
	return candidate, nil
}

// ValidateBranchName ensures the candidate is a safe branch name and returns it with surrounding whitespace trimmed.
func ValidateBranchName(candidate string) (string, error) {
	if len(candidate) == 0 {
		return "", InputError{Message: branchNameRequiredMessageConstant}
	}
	if strings.ContainsAny(candidate, dangerousCharacterSetConstant) {
		return "", InputError{Message: fmt.Sprintf(dangerousCharactersMessageTemplateConstant, branchNameSubjectLabelConstant, candidate)}
	}
	if strings.Contains(candidate, traversalSequenceConstant) {
		return "", InputError{Message: fmt.Sprintf(branchNameTraversalMessageTemplateConstant, candidate)}
	}
	trimmedCandidate := strings.TrimSpace(candidate)
	if len(trimmedCandidate) == 0 {
		return "", InputError{Message: branchNameWhitespaceMessageConstant}
	}
	return trimmedCandidate, nil
}

// ValidateCommitMessage ensures the candidate is a safe commit message and returns it unchanged.
// Traversal sequences are permitted because commit messages are free text.
func ValidateCommitMessage(candidate string) (string, error) {
	if len(candidate) == 0 {
		return "", InputError{Message: commitMessageRequiredMessageConstant}
	}
	if strings.ContainsAny(candidate, dangerousCharacterSetConstant) {
		return "", InputError{Message: fmt.Sprintf(dangerousCharactersMessageTemplateConstant, commitMessageSubjectLabelConstant, candidate)}
	}
	return candidate, nil
}

// ValidateFileList validates every entry as a repository-relative path.
// The first failing entry rejects the whole batch with a message naming it.
func ValidateFileList(candidates []string) ([]string, error) {
	validatedFiles := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		validatedFile, validationError := ValidateRelativePath(candidate)
		if validationError != nil {
			return nil, InputError{Message: fmt.Sprintf(fileEntryMessageTemplateConstant, candidate, validationError.Error())}
		}
		validatedFiles = append(validatedFiles, validatedFile)
	}
	return validatedFiles, nil
}

func hasDriveLetterPrefix(candidate string) bool {
	if len(candidate) < 2 {
		return false
	}
	firstCharacter := candidate[0]
	isAlphabetic := (firstCharacter >= 'a' && firstCharacter <= 'z') || (firstCharacter >= 'A' && firstCharacter <= 'Z')
	return isAlphabetic && candidate[1] == driveLetterSeparatorConstant
}
