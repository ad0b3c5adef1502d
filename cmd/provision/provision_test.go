package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"profile-agent/internal/domain"
	"profile-agent/internal/provisioning"
)

func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "chica1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "chica2"), 0o755))
	for _, name := range []string{"b.jpg", "a.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, "chica1", name), []byte("img"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "chica2", "notes.txt"), []byte("x"), 0o644))
	return root
}

func TestProvisionLifecycle(t *testing.T) {
	root := writeCorpus(t)
	db := filepath.Join(t.TempDir(), "profiles.db")

	out, err := executeCmd(t, "run", "--root", root, "--db", db, "--seed", "7")
	require.NoError(t, err)
	require.Contains(t, out, "created  chica1")
	require.Contains(t, out, "skipped  chica2")
	require.Contains(t, out, "created=1 skipped=1 deleted=0")

	out, err = executeCmd(t, "run", "--root", root, "--db", db, "--seed", "7")
	require.NoError(t, err)
	require.Contains(t, out, "created=1 skipped=1 deleted=1")

	out, err = executeCmd(t, "reconcile", "--root", root, "--db", db)
	require.NoError(t, err)
	require.Contains(t, out, "created=0 skipped=0 deleted=0")

	require.NoError(t, os.RemoveAll(filepath.Join(root, "chica1")))
	out, err = executeCmd(t, "reconcile", "--root", root, "--db", db)
	require.NoError(t, err)
	require.Contains(t, out, "removed  chica1")
	require.Contains(t, out, "deleted=1")

	out, err = executeCmd(t, "purge", "--root", root, "--db", db)
	require.NoError(t, err)
	require.Contains(t, out, "deleted=0")
}

func TestRun_MissingRootFails(t *testing.T) {
	db := filepath.Join(t.TempDir(), "profiles.db")
	_, err := executeCmd(t, "run", "--root", filepath.Join(t.TempDir(), "missing"), "--db", db)
	require.Error(t, err)
}

func TestRun_InvalidVocabularyFails(t *testing.T) {
	vocab := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(vocab, []byte("names: []\n"), 0o644))
	_, err := executeCmd(t, "run", "--root", writeCorpus(t), "--db", filepath.Join(t.TempDir(), "p.db"), "--vocabulary", vocab)
	require.ErrorContains(t, err, "vocabulary")
}

func TestSimulate_RequiresProfile(t *testing.T) {
	_, err := executeCmd(t, "simulate")
	require.ErrorContains(t, err, "profile")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, provisioning.Report{
		Results: []provisioning.ItemResult{
			{Folder: "chica1", Name: "Lucía", Roles: map[domain.PhotoRole]int{domain.PhotoCover: 1, domain.PhotoPublic: 3, domain.PhotoPrivate: 2}},
			{Folder: "chica2", Skip: provisioning.SkipPersistFailed, Err: errors.New("disk full")},
		},
		Removed: []string{"old"},
		Deleted: domain.DeleteStats{"profiles": 1, "photos": 4},
	})
	out := buf.String()
	require.Contains(t, out, "cover=1 public=3 private=2")
	require.Contains(t, out, "persist_failed")
	require.Contains(t, out, "removed  old")
	require.Contains(t, out, "created=1 skipped=1 deleted=1")
}

func TestRunAndReconcile_RootIsAFileKeepsProfiles(t *testing.T) {
	root := writeCorpus(t)
	db := filepath.Join(t.TempDir(), "profiles.db")
	_, err := executeCmd(t, "run", "--root", root, "--db", db, "--seed", "3")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "uploads.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err = executeCmd(t, "run", "--root", file, "--db", db)
	require.ErrorContains(t, err, "not a directory")
	_, err = executeCmd(t, "reconcile", "--root", file, "--db", db)
	require.ErrorContains(t, err, "not a directory")

	out, err := executeCmd(t, "reconcile", "--root", root, "--db", db)
	require.NoError(t, err)
	require.Contains(t, out, "deleted=0")
	out, err = executeCmd(t, "purge", "--root", root, "--db", db)
	require.NoError(t, err)
	require.Contains(t, out, "deleted=1")
}

func TestSimulate_RejectsUnknownTone(t *testing.T) {
	_, err := executeCmd(t, "simulate", "--profile", "missing", "--as", "timida", "--db", filepath.Join(t.TempDir(), "p.db"))
	require.ErrorContains(t, err, "unknown personality")
}
