package main

import "fmt"

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	index, err := deps.OpenIndex(c.Index)
	if err != nil {
		reportError(deps.Stderr, err)
		return err
	}
	defer func() { _ = index.Close() }()

	hits, err := index.Search(deps.Ctx, c.Query, c.Limit)
	if err != nil {
		reportError(deps.Stderr, err)
		return err
	}

	if len(hits) == 0 {
		fmt.Fprintln(deps.Stdout, "No results.")
		return nil
	}
	for i, hit := range hits {
		fmt.Fprintf(deps.Stdout, "%2d. %s  %s\n", i+1, hit.Title, hit.Path)
		if hit.Snippet != "" {
			fmt.Fprintf(deps.Stdout, "    %s\n", hit.Snippet)
		}
	}
	return nil
}
