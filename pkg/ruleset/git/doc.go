// Package git keeps a local clone of a rule-set repository up to date.
//
// Repository wraps go-git for clone, pull and commit metadata with token, SSH
// or anonymous authentication. Watcher polls the clone and calls back when a
// pull changed .yaml or .yml files:
//
//	repo, err := git.NewRepository(cfg.Rules.Git)
//	if err != nil {
//	    return err
//	}
//	if err := repo.Clone(ctx); err != nil {
//	    return err
//	}
//	files, err := repo.ListFiles()
package git
