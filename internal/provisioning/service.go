// Package provisioning replaces the synthetic profiles of the store with
// one profile per photo corpus folder.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"profile-agent/internal/domain"
	"profile-agent/internal/photocorpus"
)

type CorpusLoader interface {
	Load(ctx context.Context, root string) (photocorpus.Manifest, error)
}

type IdentityGenerator interface {
	Generate(r *rand.Rand, folder string, index int) domain.Identity
}

type ProfileStore interface {
	CreateProfile(ctx context.Context, p domain.SyntheticProfile) (domain.SyntheticProfile, error)
	ListSynthetic(ctx context.Context) ([]domain.SyntheticProfile, error)
	DeleteProfiles(ctx context.Context, ids []string) (domain.DeleteStats, error)
}

type Service struct {
	loader CorpusLoader
	gen    IdentityGenerator
	store  ProfileStore
	root   string
	rng    *rand.Rand
	logger *zap.Logger
}

// NewService wires a provisioning service for the corpus at root. rng drives
// identity generation; pass a seeded source to pin a run.
func NewService(loader CorpusLoader, gen IdentityGenerator, store ProfileStore, root string, rng *rand.Rand, logger *zap.Logger) (*Service, error) {
	if loader == nil {
		return nil, errors.New("provisioning: corpus loader must not be nil")
	}
	if gen == nil {
		return nil, errors.New("provisioning: identity generator must not be nil")
	}
	if store == nil {
		return nil, errors.New("provisioning: profile store must not be nil")
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("provisioning: %w: empty root", photocorpus.ErrRootNotFound)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{loader: loader, gen: gen, store: store, root: root, rng: rng, logger: logger}, nil
}

// Run performs a full provisioning pass: it loads the corpus, deletes every
// existing synthetic profile and creates one profile per folder with photos.
// Per-folder failures are recorded in the report; only configuration and
// purge failures abort the pass.
func (s *Service) Run(ctx context.Context) (Report, error) {
	manifest, err := s.loader.Load(ctx, s.root)
	if err != nil {
		return Report{}, fmt.Errorf("provisioning: load corpus: %w", err)
	}

	deleted, removed, err := s.deleteSynthetic(ctx, func(domain.SyntheticProfile) bool { return true })
	if err != nil {
		return Report{}, err
	}
	report := Report{Deleted: deleted, Removed: removed}
	s.logger.Info("removed previous synthetic profiles", zap.Int("profiles", deleted.Profiles()))

	for i, folder := range manifest.Folders {
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, ItemResult{Folder: folder.Name, Skip: SkipCanceled, Err: err})
			s.logSummary(report)
			return report, fmt.Errorf("provisioning: canceled at %s: %w", folder.Name, err)
		}
		res := s.provisionFolder(ctx, folder, i)
		report.Results = append(report.Results, res)
	}

	s.logSummary(report)
	return report, nil
}

func (s *Service) provisionFolder(ctx context.Context, folder photocorpus.Folder, index int) ItemResult {
	if len(folder.Photos) == 0 {
		s.logger.Warn("skipping folder without photos", zap.String("folder", folder.Name))
		return ItemResult{Folder: folder.Name, Skip: SkipNoPhotos}
	}

	ident := s.gen.Generate(s.rng, folder.Name, index)
	profile := domain.NewSyntheticProfile("", folder.Name, ident, domain.AssignPhotoRoles(folder.Photos))

	created, err := s.store.CreateProfile(ctx, profile)
	if err != nil {
		s.logger.Error("failed to create profile, continuing",
			zap.String("folder", folder.Name),
			zap.Error(err))
		return ItemResult{Folder: folder.Name, Name: ident.Name, Skip: SkipPersistFailed, Err: err}
	}

	roles := created.CountRoles()
	s.logger.Info("created profile",
		zap.String("folder", folder.Name),
		zap.String("profile_id", created.ID),
		zap.String("name", ident.Name),
		zap.String("personality", ident.Personality.String()),
		zap.Int("cover", roles[domain.PhotoCover]),
		zap.Int("public", roles[domain.PhotoPublic]),
		zap.Int("private", roles[domain.PhotoPrivate]))
	return ItemResult{Folder: folder.Name, ProfileID: created.ID, Name: ident.Name, Roles: roles}
}

// Purge deletes every synthetic profile without recreating any.
func (s *Service) Purge(ctx context.Context) (Report, error) {
	deleted, removed, err := s.deleteSynthetic(ctx, func(domain.SyntheticProfile) bool { return true })
	if err != nil {
		return Report{}, err
	}
	s.logger.Info("purged synthetic profiles", zap.Int("profiles", deleted.Profiles()))
	return Report{Deleted: deleted, Removed: removed}, nil
}

// Reconcile deletes synthetic profiles whose source folder is no longer in
// the corpus. Profiles whose folder still exists are never touched.
func (s *Service) Reconcile(ctx context.Context) (Report, error) {
	manifest, err := s.loader.Load(ctx, s.root)
	if err != nil {
		return Report{}, fmt.Errorf("provisioning: load corpus: %w", err)
	}
	deleted, removed, err := s.deleteSynthetic(ctx, func(p domain.SyntheticProfile) bool {
		return !manifest.Has(p.SourceFolder)
	})
	if err != nil {
		return Report{}, err
	}
	s.logger.Info("reconciled synthetic profiles",
		zap.Strings("folders", manifest.Names()),
		zap.Int("deleted", deleted.Profiles()),
		zap.Strings("removed", removed))
	return Report{Deleted: deleted, Removed: removed}, nil
}

func (s *Service) deleteSynthetic(ctx context.Context, match func(domain.SyntheticProfile) bool) (domain.DeleteStats, []string, error) {
	existing, err := s.store.ListSynthetic(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("provisioning: list synthetic profiles: %w", err)
	}
	var ids, folders []string
	for _, p := range existing {
		if match(p) {
			ids = append(ids, p.ID)
			folders = append(folders, p.SourceFolder)
		}
	}
	stats, err := s.store.DeleteProfiles(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("provisioning: delete synthetic profiles: %w", err)
	}
	return stats, folders, nil
}

func (s *Service) logSummary(r Report) {
	s.logger.Info("provisioning pass finished",
		zap.Int("created", r.Created()),
		zap.Int("skipped", r.Skipped()),
		zap.Int("deleted", r.DeletedProfiles()))
}
