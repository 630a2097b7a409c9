package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitmcp/internal/dispatch"
	"github.com/temirov/gitmcp/internal/execshell"
	"github.com/temirov/gitmcp/internal/gitrepo"
	"github.com/temirov/gitmcp/internal/mcpserver"
	"github.com/temirov/gitmcp/internal/ui"
)

const (
	serveCommandUseConstant                          = "serve"
	serveCommandShortDescriptionConstant             = "Serve protocol requests on standard input and output"
	serveCommandLongDescriptionConstant              = "serve reads newline-delimited JSON-RPC requests from standard input, resolves them against the configured repository root, and writes one response line per request to standard output."
	serveLoggerProviderMissingMessageConstant        = "logger provider not configured"
	serveConfigurationProviderMissingMessageConstant = "configuration provider not configured"
	workingDirectoryErrorTemplateConstant            = "unable to determine working directory: %w"
	executorCreationErrorTemplateConstant            = "unable to create git executor: %w"
	factoryCreationErrorTemplateConstant             = "unable to create repository factory: %w"
	dispatcherCreationErrorTemplateConstant          = "unable to create dispatcher: %w"
	serverCreationErrorTemplateConstant              = "unable to create server: %w"
	repositoryRootLogFieldConstant                   = "repository_root"
	serveStartingMessageConstant                     = "Binding repository root"
)

// ServeConfiguration stores the repository binding for the serve command.
type ServeConfiguration struct {
	RepositoryRoot string `mapstructure:"repository_root"`
}

// ServeCommandBuilder assembles the serve command from application-level providers.
type ServeCommandBuilder struct {
	LoggerProvider               func() *zap.Logger
	ConfigurationProvider        func() ServeConfiguration
	HumanReadableLoggingProvider func() bool
}

// Build constructs the serve cobra command.
func (builder ServeCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, errors.New(serveLoggerProviderMissingMessageConstant)
	}
	if builder.ConfigurationProvider == nil {
		return nil, errors.New(serveConfigurationProviderMissingMessageConstant)
	}

	serveCommand := &cobra.Command{
		Use:   serveCommandUseConstant,
		Short: serveCommandShortDescriptionConstant,
		Long:  serveCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.Run(command)
		},
	}

	return serveCommand, nil
}

// Run wires the executor, repository factory, dispatcher, and transport, then
// serves until the input stream ends.
func (builder ServeCommandBuilder) Run(command *cobra.Command) error {
	logger := zap.NewNop()
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}

	repositoryRoot := ""
	if builder.ConfigurationProvider != nil {
		repositoryRoot = strings.TrimSpace(builder.ConfigurationProvider().RepositoryRoot)
	}
	if len(repositoryRoot) == 0 {
		workingDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
		}
		repositoryRoot = workingDirectory
	}

	logger.Info(serveStartingMessageConstant, zap.String(repositoryRootLogFieldConstant, repositoryRoot))

	shellExecutor, executorCreationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorCreationError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorCreationError)
	}

	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		shellExecutor.SetCommandEventObserver(ui.NewConsoleCommandEventLogger(logger))
	}

	repositoryFactory, factoryCreationError := gitrepo.NewRepositoryFactory(repositoryRoot, shellExecutor)
	if factoryCreationError != nil {
		return fmt.Errorf(factoryCreationErrorTemplateConstant, factoryCreationError)
	}

	handleFactory := func(context.Context) (dispatch.RepositoryGateway, error) {
		openedRepository, openError := repositoryFactory.Open()
		if openError != nil {
			return nil, openError
		}
		return openedRepository, nil
	}

	dispatcher, dispatcherCreationError := dispatch.NewDispatcher(handleFactory, logger)
	if dispatcherCreationError != nil {
		return fmt.Errorf(dispatcherCreationErrorTemplateConstant, dispatcherCreationError)
	}

	server, serverCreationError := mcpserver.NewServer(mcpserver.ServerDependencies{
		Logger:     logger,
		Dispatcher: dispatcher,
		Input:      command.InOrStdin(),
		Output:     command.OutOrStdout(),
	})
	if serverCreationError != nil {
		return fmt.Errorf(serverCreationErrorTemplateConstant, serverCreationError)
	}

	return server.Serve(command.Context())
}
