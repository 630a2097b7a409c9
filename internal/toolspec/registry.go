package toolspec

const (
	// ToolNameGitStatus identifies the working tree status query tool.
	ToolNameGitStatus = "git_status"
	// ToolNameCreateBranch identifies the branch creation tool.
	ToolNameCreateBranch = "create_branch"
	// ToolNameSwitchBranch identifies the branch checkout tool.
	ToolNameSwitchBranch = "switch_branch"
	// ToolNameListBranches identifies the branch listing tool.
	ToolNameListBranches = "list_branches"
	// ToolNameMergeBranch identifies the branch merge tool.
	ToolNameMergeBranch = "merge_branch"
	// ToolNameCreateWorktree identifies the worktree creation tool.
	ToolNameCreateWorktree = "create_worktree"
	// ToolNameListWorktrees identifies the worktree listing tool.
	ToolNameListWorktrees = "list_worktrees"
	// ToolNameRemoveWorktree identifies the worktree removal tool.
	ToolNameRemoveWorktree = "remove_worktree"
	// ToolNameCommitChanges identifies the staging and commit tool.
	ToolNameCommitChanges = "commit_changes"
	// ToolNamePushChanges identifies the push tool.
	ToolNamePushChanges = "push_changes"
	// ToolNamePullChanges identifies the pull tool.
	ToolNamePullChanges = "pull_changes"
)

const (
	// PropertyTypeString marks a parameter carrying a single string value.
	PropertyTypeString = "string"
	// PropertyTypeStringArray marks a parameter carrying a list of strings.
	PropertyTypeStringArray = "array<string>"
)

const (
	jsonSchemaObjectTypeConstant     = "object"
	jsonSchemaArrayTypeConstant      = "array"
	jsonSchemaStringTypeConstant     = "string"
	jsonSchemaTypeKeyConstant        = "type"
	jsonSchemaItemsKeyConstant       = "items"
	jsonSchemaDescriptionKeyConstant = "description"
	jsonSchemaPropertiesKeyConstant  = "properties"
	jsonSchemaRequiredKeyConstant    = "required"
)

// PropertySpec describes one parameter of a tool's input shape.
type PropertySpec struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Descriptor describes one tool exposed for protocol introspection.
type Descriptor struct {
	Name        string
	Description string
	InputShape  []PropertySpec
}

// InputSchema reshapes the descriptor's input shape into a JSON-schema object.
func (descriptor Descriptor) InputSchema() map[string]any {
	properties := map[string]any{}
	requiredPropertyNames := []string{}

	for _, property := range descriptor.InputShape {
		propertySchema := map[string]any{
			jsonSchemaDescriptionKeyConstant: property.Description,
		}
		switch property.Type {
		case PropertyTypeStringArray:
			propertySchema[jsonSchemaTypeKeyConstant] = jsonSchemaArrayTypeConstant
			propertySchema[jsonSchemaItemsKeyConstant] = map[string]any{jsonSchemaTypeKeyConstant: jsonSchemaStringTypeConstant}
		default:
			propertySchema[jsonSchemaTypeKeyConstant] = jsonSchemaStringTypeConstant
		}
		properties[property.Name] = propertySchema

		if property.Required {
			requiredPropertyNames = append(requiredPropertyNames, property.Name)
		}
	}

	return map[string]any{
		jsonSchemaTypeKeyConstant:       jsonSchemaObjectTypeConstant,
		jsonSchemaPropertiesKeyConstant: properties,
		jsonSchemaRequiredKeyConstant:   requiredPropertyNames,
	}
}

// Registry returns the ordered list of tool descriptors exposed by the server.
func Registry() []Descriptor {
	return []Descriptor{
		{
			Name:        ToolNameGitStatus,
			Description: "Report the current branch and the staged, modified, deleted, untracked, and conflicted files of the repository.",
			InputShape:  []PropertySpec{},
		},
		{
			Name:        ToolNameCreateBranch,
			Description: "Create a new branch and switch to it, optionally starting from a named branch.",
			InputShape: []PropertySpec{
				{Name: "branchName", Type: PropertyTypeString, Description: "Name of the branch to create.", Required: true},
				{Name: "fromBranch", Type: PropertyTypeString, Description: "Existing branch to start from. Defaults to the current branch.", Required: false},
			},
		},
		{
			Name:        ToolNameSwitchBranch,
			Description: "Switch the working tree to an existing branch.",
			InputShape: []PropertySpec{
				{Name: "branchName", Type: PropertyTypeString, Description: "Name of the branch to switch to.", Required: true},
			},
		},
		{
			Name:        ToolNameListBranches,
			Description: "List local branches and identify the one currently checked out.",
			InputShape:  []PropertySpec{},
		},
		{
			Name:        ToolNameMergeBranch,
			Description: "Merge a source branch into a target branch, defaulting to the currently checked out branch.",
			InputShape: []PropertySpec{
				{Name: "sourceBranch", Type: PropertyTypeString, Description: "Branch whose commits are merged in.", Required: true},
				{Name: "targetBranch", Type: PropertyTypeString, Description: "Branch to merge into. Defaults to the current branch.", Required: false},
			},
		},
		{
			Name:        ToolNameCreateWorktree,
			Description: "Create a linked worktree at a repository-relative path on a new branch.",
			InputShape: []PropertySpec{
				{Name: "path", Type: PropertyTypeString, Description: "Repository-relative path for the new worktree.", Required: true},
				{Name: "branch", Type: PropertyTypeString, Description: "Name of the new branch. Defaults to the final path segment.", Required: false},
			},
		},
		{
			Name:        ToolNameListWorktrees,
			Description: "List the worktrees attached to the repository.",
			InputShape:  []PropertySpec{},
		},
		{
			Name:        ToolNameRemoveWorktree,
			Description: "Remove the linked worktree at a repository-relative path.",
			InputShape: []PropertySpec{
				{Name: "path", Type: PropertyTypeString, Description: "Repository-relative path of the worktree to remove.", Required: true},
			},
		},
		{
			Name:        ToolNameCommitChanges,
			Description: "Stage changes and record a commit, optionally limited to named files.",
			InputShape: []PropertySpec{
				{Name: "message", Type: PropertyTypeString, Description: "Commit message.", Required: true},
				{Name: "files", Type: PropertyTypeStringArray, Description: "Files to stage. Defaults to all changes.", Required: false},
			},
		},
		{
			Name:        ToolNamePushChanges,
			Description: "Push commits to a remote, optionally targeting one branch.",
			InputShape: []PropertySpec{
				{Name: "remote", Type: PropertyTypeString, Description: "Remote to push to. Defaults to origin.", Required: false},
				{Name: "branch", Type: PropertyTypeString, Description: "Branch to push. Defaults to the current branch.", Required: false},
			},
		},
		{
			Name:        ToolNamePullChanges,
			Description: "Pull commits from a remote, optionally targeting one branch.",
			InputShape: []PropertySpec{
				{Name: "remote", Type: PropertyTypeString, Description: "Remote to pull from. Defaults to origin.", Required: false},
				{Name: "branch", Type: PropertyTypeString, Description: "Branch to pull. Defaults to the tracked branch.", Required: false},
			},
		},
	}
}
