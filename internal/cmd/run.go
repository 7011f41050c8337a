package cmd

import (
	"os"
	"strings"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/moffa90/go-fastboot/internal/configpaths"
	"github.com/moffa90/go-fastboot/internal/log"
)

// Main parses args, sets up logging and runs the selected command.
func Main(args []string) {
	userCfg := findUserConfig(args)
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("fastboot-flash"),
		kong.Description("Flash Android factory images over the fastboot protocol"),
		kong.UsageOnError(),
		// flags and env override config values
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to build command line: " + err.Error() + "\n")
		os.Exit(2)
	}
	ctx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	rawLogger := log.NewRaw(nil)
	switch {
	case cli.Log.RawFile != "":
		f, err := os.OpenFile(cli.Log.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open raw log file", "file", cli.Log.RawFile, "error", err)
		} else {
			rawLogger = log.NewRaw(f)
			closeFiles = append(closeFiles, f)
		}
	case cli.Log.Level == "trace":
		rawLogger = log.NewRaw(os.Stderr)
	}

	ctx.Bind(logger)
	ctx.Bind(&cli.Globals)
	ctx.BindTo(rawLogger, (*log.RawLogger)(nil))

	err = ctx.Run()
	if err != nil {
		logger.Error("command failed", "command", ctx.Command(), "error", err)
	}
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("FASTBOOT_CONFIG")
}
