// Command mdbook-docx is an mdBook renderer that writes Word documents.
//
// Run by mdBook, it reads the render context from stdin. Run by hand,
// "mdbook-docx build <book-root>" builds a book directory directly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/RossMurr4y/mdbook-docx/internal/build"
	"github.com/RossMurr4y/mdbook-docx/internal/config"
	"github.com/RossMurr4y/mdbook-docx/internal/logging"
	"github.com/RossMurr4y/mdbook-docx/internal/mdbook"
	"github.com/RossMurr4y/mdbook-docx/pkg/docx/markdown"
)

var version = "0.1.0"

// CLI defines the command-line interface using Kong
var CLI struct {
	LogLevel    string `name:"log-level" help:"Log level: debug, info, warn, error, off (default: MDBOOK_DOCX_LOG_LEVEL or info)"`
	Parallelism int    `name:"parallelism" short:"j" help:"Documents built at once (default: MDBOOK_DOCX_PARALLELISM or CPU count)"`

	Render  RenderCmd  `cmd:"" default:"1" help:"Render the book mdBook passes on stdin"`
	Build   BuildCmd   `cmd:"" help:"Build a book directory without mdBook"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// RenderCmd is the mdBook renderer entry point
type RenderCmd struct{}

func (c *RenderCmd) Run() error {
	rc, err := mdbook.ReadRenderContext(os.Stdin)
	if err != nil {
		return err
	}
	logging.Debug("mdBook %s, root %s", rc.Version, rc.Root)
	return buildProject(rc.Project())
}

// BuildCmd builds a book directory
type BuildCmd struct {
	Root string `arg:"" optional:"" type:"existingdir" default:"." help:"Book root holding book.toml"`
}

func (c *BuildCmd) Run() error {
	project, err := mdbook.LoadBook(c.Root)
	if err != nil {
		return err
	}
	return buildProject(project)
}

// VersionCmd prints version information
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("mdbook-docx %s\n", version)
	return nil
}

// buildProject builds with the runtime settings installed by main
func buildProject(project *mdbook.Project) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := build.New(build.Options{Logger: logging.GetLogger()})
	results := builder.Build(ctx, build.Input{
		Root:        project.Root,
		Destination: project.Destination,
		Book:        project.Config,
		Chapters:    project.Chapters,
		Resources:   markdown.DirLoader{Root: project.SrcDir()},
	})
	return build.Failed(results)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mdbook-docx"),
		kong.Description("Render mdBook books as Word documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	rt := config.RuntimeFromEnvironment()
	if CLI.LogLevel != "" {
		rt.LogLevel = CLI.LogLevel
	}
	if CLI.Parallelism != 0 {
		rt.Parallelism = CLI.Parallelism
	}
	if err := rt.Validate(); err != nil {
		ctx.FatalIfErrorf(fmt.Errorf("runtime settings: %w", err))
	}
	config.SetRuntime(rt)

	logger := logging.New(os.Stderr, rt.Level())
	logging.SetLogger(logger)

	err := ctx.Run()
	_ = logger.Sync()
	ctx.FatalIfErrorf(err)
}
