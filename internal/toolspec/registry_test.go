package toolspec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmcp/internal/toolspec"
)

const expectedToolCountConstant = 11

func TestRegistryExposesElevenUniqueTools(testInstance *testing.T) {
	registeredDescriptors := toolspec.Registry()
	require.Len(testInstance, registeredDescriptors, expectedToolCountConstant)

	expectedToolOrder := []string{
		toolspec.ToolNameGitStatus,
		toolspec.ToolNameCreateBranch,
		toolspec.ToolNameSwitchBranch,
		toolspec.ToolNameListBranches,
		toolspec.ToolNameMergeBranch,
		toolspec.ToolNameCreateWorktree,
		toolspec.ToolNameListWorktrees,
		toolspec.ToolNameRemoveWorktree,
		toolspec.ToolNameCommitChanges,
		toolspec.ToolNamePushChanges,
		toolspec.ToolNamePullChanges,
	}

	seenToolNames := map[string]bool{}
	for descriptorIndex, descriptor := range registeredDescriptors {
		require.Equal(testInstance, expectedToolOrder[descriptorIndex], descriptor.Name)
		require.NotEmpty(testInstance, descriptor.Description)
		require.False(testInstance, seenToolNames[descriptor.Name])
		seenToolNames[descriptor.Name] = true
	}
}

func TestDescriptorInputSchemaShape(testInstance *testing.T) {
	for _, descriptor := range toolspec.Registry() {
		inputSchema := descriptor.InputSchema()
		require.Equal(testInstance, "object", inputSchema["type"])

		properties, propertiesPresent := inputSchema["properties"].(map[string]any)
		require.True(testInstance, propertiesPresent)

		requiredPropertyNames, requiredPresent := inputSchema["required"].([]string)
		require.True(testInstance, requiredPresent)

		for _, requiredPropertyName := range requiredPropertyNames {
			require.Contains(testInstance, properties, requiredPropertyName)
		}

		for _, property := range descriptor.InputShape {
			propertySchema, schemaPresent := properties[property.Name].(map[string]any)
			require.True(testInstance, schemaPresent)
			if property.Type == toolspec.PropertyTypeStringArray {
				require.Equal(testInstance, "array", propertySchema["type"])
				require.Equal(testInstance, map[string]any{"type": "string"}, propertySchema["items"])
			} else {
				require.Equal(testInstance, "string", propertySchema["type"])
			}
		}
	}
}
