// Package source loads rule-set bundles and keeps them current.
//
// A Source produces bundles from files on disk (FileSource), a Git repository
// (GitSource) or memory (MemorySource), and reports changes on a channel.
// Manager owns the active bundle: it reloads on every change and swaps the
// bundle only when the new one builds and validates, so evaluations in flight
// keep using the graph they started with.
//
//	src, err := source.New(cfg.Rules, logger)
//	if err != nil {
//	    return err
//	}
//	mgr := source.NewManager(src, source.WithLogger(logger))
//	go mgr.Run(ctx)
//	bundle, err := mgr.Current()
package source
