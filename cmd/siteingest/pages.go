package main

import (
	"fmt"
	"os"

	"github.com/fwojciec/siteingest"
	"github.com/fwojciec/siteingest/crawl"
)

// Run executes the pages command.
func (c *PagesCmd) Run(deps *Dependencies) error {
	if c.URL != "" {
		return c.show(deps)
	}
	if c.Screenshot != "" {
		err := siteingest.Errorf(siteingest.EINVALID, "--screenshot requires --url")
		fmt.Fprintf(deps.Stderr, "error: %s\n", siteingest.ErrorMessage(err))
		return err
	}

	filter := siteingest.PageFilter{Limit: c.Limit, Offset: c.Offset}
	if c.Host != "" {
		filter.Host = &c.Host
	}

	pages, err := deps.Pages.FindPages(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", siteingest.ErrorMessage(err))
		return err
	}
	total, err := deps.Pages.CountPages(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", siteingest.ErrorMessage(err))
		return err
	}

	if len(pages) == 0 {
		fmt.Fprintln(deps.Stdout, "No pages found. Use 'siteingest crawl' to capture some.")
		return nil
	}

	for _, p := range pages {
		fmt.Fprintf(deps.Stdout, "%s  %-60s  %9s  %s\n",
			p.CapturedAt.Format("2006-01-02 15:04"),
			crawl.TruncateURL(p.URL, 60),
			crawl.FormatBytes(len(p.Text)),
			p.Title,
		)
	}
	fmt.Fprintf(deps.Stdout, "\nShowing %d of %d pages\n", len(pages), total)

	return nil
}

// show prints one page, preferring its markdown over the raw text, and
// optionally exports its screenshot.
func (c *PagesCmd) show(deps *Dependencies) error {
	page, err := deps.Pages.FindPageByURL(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", siteingest.ErrorMessage(err))
		return err
	}

	if c.Screenshot != "" {
		shot, err := deps.Pages.Screenshot(deps.Ctx, page.URL)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", siteingest.ErrorMessage(err))
			return err
		}
		if err := os.WriteFile(c.Screenshot, shot, 0644); err != nil {
			return fmt.Errorf("writing screenshot: %w", err)
		}
		fmt.Fprintf(deps.Stdout, "Screenshot written to %s (%s)\n", c.Screenshot, crawl.FormatBytes(len(shot)))
		return nil
	}

	body := page.Markdown
	if body == "" {
		body = page.Text
	}
	fmt.Fprintf(deps.Stdout, "%s\n%s\ncaptured %s\n\n%s\n",
		page.Title,
		page.URL,
		page.CapturedAt.Format("2006-01-02 15:04"),
		body,
	)
	return nil
}
