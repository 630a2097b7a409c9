// Package utils exposes reusable helpers consumed across the server.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging, plus a flushing
// writer that keeps the protocol stream on standard output unbuffered.
package utils
