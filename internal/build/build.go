// Package build runs the per-document pipeline: resolve chapters, load the
// template and fragments, compile Markdown, assemble and write the package.
// Documents build in parallel and fail independently.
package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/RossMurr4y/mdbook-docx/internal/config"
	"github.com/RossMurr4y/mdbook-docx/internal/logging"
	"github.com/RossMurr4y/mdbook-docx/internal/manifest"
	"github.com/RossMurr4y/mdbook-docx/pkg/docx"
	"github.com/RossMurr4y/mdbook-docx/pkg/docx/markdown"
)

// Options configure a Builder. Zero fields take the process runtime
// settings from config.GetRuntime.
type Options struct {
	// Parallelism bounds how many documents build at once
	Parallelism int
	// MaxImageWidth bounds image width in EMUs. 0 uses the text width.
	MaxImageWidth int64
	// Cache shares templates between documents and builds
	Cache  *docx.TemplateCache
	Logger *logging.Logger
}

// Input is a book ready to build
type Input struct {
	// Root resolves template and fragment paths
	Root        string
	Destination string
	Book        *config.Book
	Chapters    []manifest.Chapter
	// Resources loads images referenced by chapters
	Resources markdown.ResourceLoader
}

// Result reports one document
type Result struct {
	Document string
	Path     string
	Blocks   int
	Warnings docx.Warnings
	Err      error
	Duration time.Duration
}

// Builder builds every document of a book
type Builder struct {
	opts Options
}

// New creates a Builder
func New(opts Options) *Builder {
	rt := config.GetRuntime()
	if opts.Parallelism <= 0 {
		opts.Parallelism = rt.Parallelism
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if opts.MaxImageWidth <= 0 {
		opts.MaxImageWidth = rt.MaxImageWidthEMU()
	}
	if opts.Cache == nil {
		opts.Cache = docx.NewTemplateCache(rt.CacheTemplates)
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger()
	}
	return &Builder{opts: opts}
}

// Build builds every configured document and returns one result per
// document in configuration order. A failing document never stops its
// siblings. Documents not yet started when ctx is cancelled fail with the
// context error.
func (b *Builder) Build(ctx context.Context, in Input) []Result {
	cache := b.opts.Cache
	runID := uuid.NewString()
	log := b.opts.Logger.WithField("run_id", runID)

	docs := in.Book.Documents
	configErrs := in.Book.DocumentErrors()
	results := make([]Result, len(docs))

	log.Info("building %d document(s) from %d chapter(s)", len(docs), len(in.Chapters))

	var g errgroup.Group
	g.SetLimit(b.opts.Parallelism)
	for i := range docs {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Document: docs[i].Filename, Err: err}
			continue
		}
		g.Go(func() error {
			job := &job{
				ctx:    ctx,
				in:     in,
				doc:    docs[i],
				cache:  cache,
				opts:   b.opts,
				logger: log.WithField("document", docs[i].Filename),
			}
			results[i] = job.run(configErrs[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed aggregates the errors of failed documents, nil when all succeeded
func Failed(results []Result) error {
	errs := docx.NewMultiError()
	for _, r := range results {
		if r.Err != nil {
			errs.Add(fmt.Errorf("%s: %w", r.Document, r.Err))
		}
	}
	return errs.Err()
}

type job struct {
	ctx    context.Context
	in     Input
	doc    config.DocumentConfig
	cache  *docx.TemplateCache
	opts   Options
	logger *logging.Logger
}

func (j *job) run(configErr error) (result Result) {
	start := time.Now()
	result.Document = j.doc.Filename
	defer func() {
		if r := recover(); r != nil {
			result.Err = docx.RecoverError(r)
		}
		result.Duration = time.Since(start)
		for _, w := range result.Warnings {
			j.logger.Warn("%s", w)
		}
		switch {
		case result.Err == nil:
			j.logger.Info("wrote %s (%d blocks) in %s", result.Path, result.Blocks, result.Duration)
		case errors.Is(result.Err, docx.ErrAssemblyFailed):
			j.logger.Error("internal assembly failure: %v", result.Err)
		default:
			j.logger.Error("%v", result.Err)
		}
	}()

	if configErr != nil {
		result.Err = configErr
		return result
	}
	result.Path, result.Blocks, result.Err = j.build(&result.Warnings)
	return result
}

func (j *job) build(warnings *docx.Warnings) (string, int, error) {
	matcher, err := manifest.Compile(j.doc.Include)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	chapters, err := manifest.Resolve(j.in.Chapters, matcher)
	if err != nil {
		return "", 0, err
	}
	j.logger.Debug("%d chapter(s) selected", len(chapters))

	tmpl, prepend, appendix, err := j.loadResources()
	if err != nil {
		return "", 0, err
	}

	media := docx.NewMediaTable()
	compiler := markdown.New(tmpl.Registry, media, markdown.Options{
		OffsetHeadingsBy: j.doc.OffsetHeadingsBy,
		HardLineBreaks:   j.doc.LineBreaks(),
		Resources:        j.in.Resources,
		MaxImageWidth:    j.opts.MaxImageWidth,
	})
	compiled := make([][]docx.Block, 0, len(chapters))
	for _, ch := range chapters {
		if err := j.ctx.Err(); err != nil {
			return "", 0, err
		}
		res, err := compiler.Compile(ch.Path, []byte(ch.Content))
		if err != nil {
			return "", 0, fmt.Errorf("compiling %s: %w", ch.Path, err)
		}
		*warnings = append(*warnings, res.Warnings...)
		compiled = append(compiled, res.Blocks)
	}

	doc, err := docx.Assemble(docx.AssemblyInput{
		Template: tmpl,
		Prepend:  prepend,
		Chapters: compiled,
		Append:   appendix,
		Media:    media,
		Properties: docx.DocumentProperties{
			Title:      j.doc.Title,
			Creator:    strings.Join(j.in.Book.Authors, ", "),
			Language:   j.in.Book.Language,
			Identifier: "urn:uuid:" + uuid.NewString(),
			Created:    time.Now().UTC(),
		},
	})
	if err != nil {
		return "", 0, err
	}
	*warnings = append(*warnings, doc.Warnings...)

	data, err := doc.Package()
	if err != nil {
		return "", 0, err
	}
	target := filepath.Join(j.in.Destination, filepath.FromSlash(j.doc.Filename))
	if err := docx.WritePackage(target, data); err != nil {
		return "", 0, err
	}
	return target, len(doc.Blocks), nil
}

// loadResources loads the template and every fragment concurrently
func (j *job) loadResources() (*docx.Template, []*docx.Fragment, []*docx.Fragment, error) {
	g, ctx := errgroup.WithContext(j.ctx)

	var tmpl *docx.Template
	g.Go(func() (err error) {
		defer recoverInto(&err)
		tmpl, err = j.cache.Load(j.resolve(j.doc.Template))
		return err
	})

	load := func(paths []string) []*docx.Fragment {
		out := make([]*docx.Fragment, len(paths))
		for i, p := range paths {
			g.Go(func() (err error) {
				defer recoverInto(&err)
				if err := ctx.Err(); err != nil {
					return err
				}
				frag, err := docx.LoadFragment(j.resolve(p))
				if err != nil {
					return err
				}
				out[i] = frag
				return nil
			})
		}
		return out
	}
	prepend := load(j.doc.Prepend)
	appendix := load(j.doc.Append)

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return tmpl, prepend, appendix, nil
}

// recoverInto turns a panic in a loader goroutine into its error
func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = docx.RecoverError(r)
	}
}

func (j *job) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(j.in.Root, filepath.FromSlash(p))
}
