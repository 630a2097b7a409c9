package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gitmcp/internal/utils"
)

const (
	helpFlagConstant                 = "--help"
	embeddedLogLevelExpectedConstant = "info"
)

func TestEmbeddedDefaultConfigurationParsesAsYAML(testInstance *testing.T) {
	configurationContent, configurationType := EmbeddedDefaultConfiguration()
	require.Equal(testInstance, configurationTypeConstant, configurationType)
	require.NotEmpty(testInstance, configurationContent)

	parsedConfiguration := map[string]any{}
	require.NoError(testInstance, yaml.Unmarshal(configurationContent, &parsedConfiguration))

	commonSection, commonSectionPresent := parsedConfiguration["common"].(map[string]any)
	require.True(testInstance, commonSectionPresent)
	require.Equal(testInstance, embeddedLogLevelExpectedConstant, commonSection["log_level"])

	// The log format is resolved from the execution environment, never pinned
	// by the embedded configuration.
	require.NotContains(testInstance, commonSection, "log_format")

	serverSection, serverSectionPresent := parsedConfiguration["server"].(map[string]any)
	require.True(testInstance, serverSectionPresent)
	require.Contains(testInstance, serverSection, "repository_root")
}

func TestDefaultLogFormatValueIsSupported(testInstance *testing.T) {
	logFormatValue := defaultLogFormatValue()
	supportedLogFormats := []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}
	require.Contains(testInstance, supportedLogFormats, logFormatValue)
}

func TestApplicationHelpExecutes(testInstance *testing.T) {
	application := NewApplication()

	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(outputBuffer)
	application.rootCommand.SetArgs([]string{helpFlagConstant})

	require.NoError(testInstance, application.Execute())
	require.True(testInstance, strings.Contains(outputBuffer.String(), applicationNameConstant))
}
