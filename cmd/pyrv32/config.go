package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pyrv32/pyrv32/internal/bus"
)

// fileConfig mirrors the run flags for YAML config files. A nil pointer (or
// an empty env list) means "not set in the file"; a flag the user passed on the command
// line always wins over a config file value, which in turn wins over the
// built-in default.
type fileConfig struct {
	RAM     *int     `yaml:"ram"`
	Root    *string  `yaml:"root"`
	Cwd     *string  `yaml:"cwd"`
	Stdin   *string  `yaml:"stdin"`
	Stdout  *string  `yaml:"stdout"`
	Stderr  *string  `yaml:"stderr"`
	Trace   *bool    `yaml:"trace"`
	Debug   *bool    `yaml:"debug"`
	Script  *string  `yaml:"script"`
	Verbose *bool    `yaml:"verbose"`
	Env     []string `yaml:"env"`
}

// applyConfigFile loads --config, if given, and fills in any flag the user
// did not pass explicitly on the command line. Defaults set by
// rootCmd.Flags().*Var calls remain in effect for anything the file also
// omits, so precedence is exactly flags > file > built-in defaults.
func applyConfigFile(cmd *cobra.Command) {
	if configPath == "" {
		return
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pyrv32: config: %v\n", err)
		return
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "pyrv32: config: %v\n", err)
		return
	}

	changed := cmd.Flags().Changed
	if cfg.RAM != nil && !changed("ram") {
		ramSize = *cfg.RAM
	}
	if cfg.Root != nil && !changed("root") {
		rootDir = *cfg.Root
	}
	if cfg.Cwd != nil && !changed("cwd") {
		guestCwd = *cfg.Cwd
	}
	if cfg.Stdin != nil && !changed("stdin") {
		stdinPath = *cfg.Stdin
	}
	if cfg.Stdout != nil && !changed("stdout") {
		stdoutPath = *cfg.Stdout
	}
	if cfg.Stderr != nil && !changed("stderr") {
		stderrPath = *cfg.Stderr
	}
	if cfg.Trace != nil && !changed("trace") {
		traceOn = *cfg.Trace
	}
	if cfg.Debug != nil && !changed("debug") {
		debugOn = *cfg.Debug
	}
	if cfg.Script != nil && !changed("script") {
		scriptPath = *cfg.Script
	}
	if cfg.Verbose != nil && !changed("verbose") {
		verbose = *cfg.Verbose
	}
	if len(cfg.Env) > 0 && !changed("env") {
		envVars = cfg.Env
	}
	if ramSize <= 0 {
		ramSize = bus.DefaultRAMSize
	}
}
