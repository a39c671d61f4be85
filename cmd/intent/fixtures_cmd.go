package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/Unlimited-Development-Works/Intent/pkg/driver"
)

func newFixturesCommand(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Manage fixture sources",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "fetch",
		Short: "Fetch the git fixture sources listed in intent.yml and update intent.lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := state.config()
			if err != nil {
				return failWith(exitFailure, "intent fixtures fetch: %v", err)
			}
			out := cmd.OutOrStdout()
			if len(cfg.Fixtures.Sources) == 0 {
				fmt.Fprintln(out, "intent fixtures fetch: no fixture sources configured")
				return nil
			}
			cacheDir, err := state.cacheDir(cfg)
			if err != nil {
				return failWith(exitFailure, "intent fixtures fetch: %v", err)
			}

			lockPath := cfg.LockfilePath()
			lock, err := driver.LoadLockfile(lockPath)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					return failWith(exitFailure, "intent fixtures fetch: %v", err)
				}
				lock = driver.NewLockfile(cliToolVersion)
			}
			lock.Tool = cliToolVersion

			fetcher := &driver.GitFetcher{CacheDir: cacheDir, Logger: state.log()}
			if _, err := driver.FetchAll(cfg, fetcher, lock); err != nil {
				return failWith(exitFailure, "intent fixtures fetch: %v", err)
			}
			if err := driver.WriteLockfile(lock, lockPath); err != nil {
				return failWith(exitFailure, "intent fixtures fetch: %v", err)
			}
			for _, name := range cfg.SourceNames() {
				if locked := lock.Find(name); locked != nil {
					fmt.Fprintf(out, "fetched %s %s\n", locked.Name, locked.Version)
				}
			}
			return nil
		},
	})
	return cmd
}
