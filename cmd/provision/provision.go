package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"go.uber.org/zap"

	"profile-agent/internal/domain"
	"profile-agent/internal/identity"
	"profile-agent/internal/photocorpus"
	"profile-agent/internal/provisioning"
	"profile-agent/internal/store/sqlite"
)

type provisionOptions struct {
	seed             uint64
	vocabulary       string
	sequentialNames  bool
	namesFromFolders bool
}

func newRunCmd(g *globalOptions) *cobra.Command {
	opts := &provisionOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replace every synthetic profile with one per corpus folder",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeDB, err := buildService(cmd.Context(), g, opts)
			if err != nil {
				return err
			}
			defer closeDB()
			report, err := svc.Run(cmd.Context())
			printReport(cmd.OutOrStdout(), report)
			return err
		},
	}
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for reproducible identities (0 = random)")
	cmd.Flags().StringVar(&opts.vocabulary, "vocabulary", "", "YAML vocabulary overriding the embedded one")
	cmd.Flags().BoolVar(&opts.sequentialNames, "sequential-names", false, "assign names in vocabulary order")
	cmd.Flags().BoolVar(&opts.namesFromFolders, "names-from-folders", false, "name profiles after folders named like a person")
	return cmd
}

func newPurgeCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every synthetic profile and its dependent records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeDB, err := buildService(cmd.Context(), g, &provisionOptions{})
			if err != nil {
				return err
			}
			defer closeDB()
			report, err := svc.Purge(cmd.Context())
			printReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}

func newReconcileCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Delete synthetic profiles whose corpus folder no longer exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeDB, err := buildService(cmd.Context(), g, &provisionOptions{})
			if err != nil {
				return err
			}
			defer closeDB()
			report, err := svc.Reconcile(cmd.Context())
			printReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}

func openStore(ctx context.Context, path string) (*sqlite.ProfileRepository, func(), error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open profile database: %w", err)
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := sqlite.RunMigrations(ctx, db); err != nil {
		closeDB()
		return nil, nil, err
	}
	return sqlite.NewProfileRepository(db), closeDB, nil
}

func buildService(ctx context.Context, g *globalOptions, opts *provisionOptions) (*provisioning.Service, func(), error) {
	vocab, err := loadVocabulary(opts.vocabulary)
	if err != nil {
		return nil, nil, err
	}
	gen, err := identity.NewGenerator(vocab, identity.Options{
		SequentialNames:  opts.sequentialNames,
		NamesFromFolders: opts.namesFromFolders,
	})
	if err != nil {
		return nil, nil, err
	}
	loader, err := photocorpus.NewLoader(afs.New(), photocorpus.ContentRefs{
		PublicBaseURL: g.publicBaseURL,
		StaticPrefix:  g.staticPrefix,
	}, g.logger.Named("corpus"))
	if err != nil {
		return nil, nil, err
	}
	store, closeDB, err := openStore(ctx, g.dbPath)
	if err != nil {
		return nil, nil, err
	}

	var rng *rand.Rand
	if opts.seed != 0 {
		rng = identity.NewRand(opts.seed)
		g.logger.Info("using pinned seed", zap.Uint64("seed", opts.seed))
	}
	svc, err := provisioning.NewService(loader, gen, store, g.root, rng, g.logger.Named("provisioning"))
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return svc, closeDB, nil
}

func loadVocabulary(path string) (identity.Vocabulary, error) {
	if path == "" {
		return identity.DefaultVocabulary()
	}
	return identity.LoadVocabulary(path)
}

func printReport(w io.Writer, r provisioning.Report) {
	for _, res := range r.Results {
		if res.OK() {
			fmt.Fprintf(w, "created  %-20s %-12s cover=%d public=%d private=%d\n",
				res.Folder, res.Name,
				res.Roles[domain.PhotoCover], res.Roles[domain.PhotoPublic], res.Roles[domain.PhotoPrivate])
			continue
		}
		fmt.Fprintf(w, "skipped  %-20s %s\n", res.Folder, res.Skip)
	}
	for _, folder := range r.Removed {
		fmt.Fprintf(w, "removed  %s\n", folder)
	}
	tables := make([]string, 0, len(r.Deleted))
	for table := range r.Deleted {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Fprintf(w, "deleted  %-22s %d\n", table, r.Deleted[table])
	}
	fmt.Fprintf(w, "created=%d skipped=%d deleted=%d\n", r.Created(), r.Skipped(), r.DeletedProfiles())
}
