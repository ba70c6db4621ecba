package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/indexnow-notifier/internal/sitemap"
)

func runSubmit(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	cfgPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	urls := fs.Args()
	if len(urls) == 0 {
		return errors.New("at least one URL is required")
	}
	a, err := newApp(ctx, *cfgPath)
	if err != nil {
		return err
	}
	defer a.close()
	return submitAll(ctx, a, urls, stdout)
}

func runSitemap(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sitemap", flag.ContinueOnError)
	cfgPath := configFlag(fs)
	dryRun := fs.Bool("dry-run", false, "Print the URLs instead of submitting them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one sitemap URL is required")
	}
	a, err := newApp(ctx, *cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg.Current()
	loader := sitemap.NewLoader(sitemap.Config{
		UserAgent: a.cfg.IndexNowSettings().UserAgent,
		Timeout:   cfg.SitemapTimeout(),
		MaxURLs:   cfg.Sitemap.MaxURLs,
	}, a.logger.Named("sitemap"))
	urls, err := loader.Load(ctx, fs.Arg(0))
	if err != nil {
		if len(urls) == 0 {
			return err
		}
		a.logger.Warn("sitemap partially loaded", zap.Error(err))
	}
	if len(urls) == 0 {
		_, _ = fmt.Fprintln(stdout, "sitemap lists no URLs")
		return nil
	}
	if *dryRun {
		for _, u := range urls {
			_, _ = fmt.Fprintln(stdout, u)
		}
		return nil
	}
	return submitAll(ctx, a, urls, stdout)
}

func submitAll(ctx context.Context, a *app, urls []string, stdout io.Writer) error {
	if !a.notifier.Enabled() {
		_, _ = fmt.Fprintln(stdout, "IndexNow is disabled: no API key configured")
		return nil
	}
	start := time.Now()
	if err := a.notifier.SubmitURLs(ctx, urls); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "submitted %d URL(s) in %s\n", len(urls), time.Since(start).Round(time.Millisecond))
	return nil
}
