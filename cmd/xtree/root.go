package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benz9527/xtree/stress"
	"github.com/benz9527/xtree/xlog"
)

type rootOptions struct {
	logLevel   string
	logEncoder string
	logger     xlog.XLogger
}

func (opts *rootOptions) xLoggerOptions() ([]xlog.XLoggerOption, error) {
	xopts := []xlog.XLoggerOption{
		xlog.WithXLoggerStdErrWriter(),
		stress.WithTaskContextField(),
	}
	switch strings.ToLower(opts.logLevel) {
	case "debug":
		xopts = append(xopts, xlog.WithXLoggerLevel(xlog.LogLevelDebug))
	case "info":
		xopts = append(xopts, xlog.WithXLoggerLevel(xlog.LogLevelInfo))
	case "warn":
		xopts = append(xopts, xlog.WithXLoggerLevel(xlog.LogLevelWarn))
	case "error":
		xopts = append(xopts, xlog.WithXLoggerLevel(xlog.LogLevelError))
	case "":
		// XLOG_LVL
	default:
		return nil, fmt.Errorf("unknown log level %q", opts.logLevel)
	}
	switch strings.ToLower(opts.logEncoder) {
	case "json":
		xopts = append(xopts, xlog.WithXLoggerEncoder(xlog.JSON))
	case "text":
		xopts = append(xopts, xlog.WithXLoggerEncoder(xlog.PlainText))
	default:
		return nil, fmt.Errorf("unknown log encoder %q", opts.logEncoder)
	}
	return xopts, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "xtree",
		Short:         "Red-black tree toolbox: invariant verification and demos",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			xopts, err := opts.xLoggerOptions()
			if err != nil {
				return err
			}
			opts.logger = xlog.NewXLogger(xopts...)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (default XLOG_LVL)")
	rootCmd.PersistentFlags().StringVar(&opts.logEncoder, "log-encoder", "text", "json or text")

	rootCmd.AddCommand(newVerifyCmd(opts), newDemoCmd(opts))
	return rootCmd
}
