package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupmark/internal/testutil"
	"dupmark/pkg/catalogue"
	"dupmark/pkg/collector"
	"dupmark/pkg/journal"
	"dupmark/pkg/storage"
)

const testContent = "identical photo bytes"

func setupGroup(t *testing.T, fsys afero.Fs, names ...string) (*storage.Storage, catalogue.Group) {
	t.Helper()

	for _, name := range names {
		testutil.WriteFile(t, fsys, filepath.Join("/p", name), []byte(testContent))
	}

	s, err := storage.New(fsys, "/p")
	require.NoError(t, err)

	group := catalogue.Group{Fingerprint: "sha256:test"}
	for _, name := range names {
		group.Files = append(group.Files, collector.FileEntry{
			Path: filepath.Join("/p", name),
			Dir:  "/p",
			Name: name,
			Size: int64(len(testContent)),
		})
	}

	return s, group
}

func fixedTag(tag int) Option {
	return WithTagSource(func() int { return tag })
}

func TestResolve_ReportOnly_TouchesNothing(t *testing.T) {
	fsys := testutil.MemFs(t, "/p")
	s, group := setupGroup(t, fsys, "a.jpg", "b.jpg", "c.jpg", "d.jpg")

	r, err := New(s, ReportOnly)
	require.NoError(t, err)

	result := r.Resolve(group)

	assert.Equal(t, 3, result.Marked)
	assert.Zero(t, result.Deleted)
	assert.Zero(t, result.ErrorCount)
	require.Len(t, result.Operations, 3)
	for _, op := range result.Operations {
		assert.Equal(t, ActionReport, op.Action)
		assert.Equal(t, "/p/a.jpg", op.Retained)
		assert.Empty(t, op.NewPath)
	}

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}, testutil.FileNames(t, fsys, "/p"))
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"} {
		assert.Equal(t, testContent, testutil.ReadFile(t, fsys, "/p/"+name))
	}
}

func TestResolve_Delete_KeepsFirstMember(t *testing.T) {
	fsys := testutil.MemFs(t, "/p")
	s, group := setupGroup(t, fsys, "a.jpg", "b.jpg", "c.jpg")

	r, err := New(s, Delete)
	require.NoError(t, err)

	result := r.Resolve(group)

	assert.Equal(t, 2, result.Deleted)
	assert.Zero(t, result.Marked)
	require.Len(t, result.Operations, 2)
	assert.Equal(t, ActionDelete, result.Operations[0].Action)
	assert.Equal(t, "/p/b.jpg", result.Operations[0].Path)
	assert.Equal(t, "/p/c.jpg", result.Operations[1].Path)

	assert.Equal(t, []string{"a.jpg"}, testutil.FileNames(t, fsys, "/p"))
	assert.Equal(t, testContent, testutil.ReadFile(t, fsys, "/p/a.jpg"))
}

func TestResolve_Rename_Prefix(t *testing.T) {
	fsys := testutil.MemFs(t, "/p")
	s, group := setupGroup(t, fsys, "a.jpg", "b.jpg", "c (copy).jpg")

	r, err := New(s, Rename)
	require.NoError(t, err)

	result := r.Resolve(group)

	assert.Equal(t, 2, result.Marked)
	require.Len(t, result.Operations, 2)

	tag := result.Operations[0].Tag
	assert.GreaterOrEqual(t, tag, MinTag)
	assert.LessOrEqual(t, tag, MaxTag)
	assert.Equal(t, tag, result.Operations[1].Tag, "candidates share one tag")

	marker := regexp.MustCompile(`^DUPLICATE_([0-9]{4})_`)
	var marked []string
	for _, name := range testutil.FileNames(t, fsys, "/p") {
		if m := marker.FindStringSubmatch(name); m != nil {
			marked = append(marked, name)
			assert.Equal(t, strconv.Itoa(tag), m[1])
		}
	}
	assert.ElementsMatch(t, []string{
		MarkedName("b.jpg", tag, Prefix),
		MarkedName("c (copy).jpg", tag, Prefix),
	}, marked)

	names := testutil.FileNames(t, fsys, "/p")
	assert.Contains(t, names, "a.jpg", "retained member keeps its name")
	assert.NotContains(t, names, "b.jpg")
	assert.Equal(t, testContent, testutil.ReadFile(t, fsys, result.Operations[1].NewPath))
}

func TestResolve_Rename_Suffix(t *testing.T) {
	fsys := testutil.MemFs(t, "/p")
	s, group := setupGroup(t, fsys, "a.jpg", "b.jpg", "README")

	r, err := New(s, Rename, WithPosition(Suffix), fixedTag(4821))
	require.NoError(t, err)
	assert.Equal(t, Suffix, r.Position())

	result := r.Resolve(group)

	require.Len(t, result.Operations, 2)
	assert.Equal(t, "/p/b_DUPLICATE_4821.jpg", result.Operations[0].NewPath)
	assert.Equal(t, "/p/README_DUPLICATE_4821", result.Operations[1].NewPath)
	assert.ElementsMatch(t,
		[]string{"a.jpg", "b_DUPLICATE_4821.jpg", "README_DUPLICATE_4821"},
		testutil.FileNames(t, fsys, "/p"))
}

func TestResolve_SingleMemberGroup(t *testing.T) {
	fsys := testutil.MemFs(t, "/p")
	s, group := setupGroup(t, fsys, "a.jpg")

	for _, policy := range []Policy{ReportOnly, Delete, Rename} {
		r, err := New(s, policy)
		require.NoError(t, err)

		result := r.Resolve(group)
		assert.Empty(t, result.Operations, policy.String())
		assert.Zero(t, result.Marked)
	}
	assert.Equal(t, []string{"a.jpg"}, testutil.FileNames(t, fsys, "/p"))
}

func TestResolve_Delete_FailureDoesNotStopGroup(t *testing.T) {
	fsys := testutil.NewFaultFs(afero.NewMemMapFs())
	s, group := setupGroup(t, fsys, "a.jpg", "b.jpg", "c.jpg", "d.jpg")
	fsys.DenyRemove["/p/c.jpg"] = true

	r, err := New(s, Delete)
	require.NoError(t, err)

	result := r.Resolve(group)

	assert.Equal(t, 2, result.Deleted, "failed delete is not counted")
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Operations, 3)

	failed := result.Operations[1]
	assert.Equal(t, "/p/c.jpg", failed.Path)
	require.Error(t, failed.Error)
	assert.True(t, errors.Is(failed.Error, os.ErrPermission))
	assert.Contains(t, failed.Error.Error(), "/p/c.jpg")

	assert.Equal(t, []string{"a.jpg", "c.jpg"}, testutil.FileNames(t, fsys, "/p"))
}

func TestResolve_Rename_NeverOverwrites(t *testing.T) {
	fsys := testutil.MemFs(t, "/p")
	s, group := setupGroup(t, fsys, "a.jpg", "b.jpg", "c.jpg")
	testutil.WriteFile(t, fsys, "/p/DUPLICATE_4242_b.jpg", []byte("someone else"))

	r, err := New(s, Rename, fixedTag(4242))
	require.NoError(t, err)

	result := r.Resolve(group)

	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Operations, 2)
	assert.ErrorIs(t, result.Operations[0].Error, storage.ErrDestinationExists)
	assert.NoError(t, result.Operations[1].Error)

	assert.Equal(t, "someone else", testutil.ReadFile(t, fsys, "/p/DUPLICATE_4242_b.jpg"))
	assert.Equal(t, testContent, testutil.ReadFile(t, fsys, "/p/b.jpg"))
	assert.Equal(t, testContent, testutil.ReadFile(t, fsys, "/p/DUPLICATE_4242_c.jpg"))
}

func TestResolve_Rename_FailureDoesNotStopGroup(t *testing.T) {
	fsys := testutil.NewFaultFs(afero.NewMemMapFs())
	s, group := setupGroup(t, fsys, "a.jpg", "b.jpg", "c.jpg")
	fsys.DenyRename["/p/b.jpg"] = true

	r, err := New(s, Rename, fixedTag(1500))
	require.NoError(t, err)

	result := r.Resolve(group)

	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, 1, result.ErrorCount)
	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg", "DUPLICATE_1500_c.jpg"}, testutil.FileNames(t, fsys, "/p"))
}

func TestResolve_Rename_AvoidsReusingTags(t *testing.T) {
	fsys := testutil.MemFs(t, "/p")
	s, first := setupGroup(t, fsys, "a.jpg", "b.jpg")
	_, second := setupGroup(t, fsys, "c.png", "d.png")

	draws := []int{1234, 1234, 1234, 5678}
	r, err := New(s, Rename, WithTagSource(func() int {
		next := draws[0]
		draws = draws[1:]
		return next
	}))
	require.NoError(t, err)

	assert.Equal(t, 1234, r.Resolve(first).Operations[0].Tag)
	assert.Equal(t, 5678, r.Resolve(second).Operations[0].Tag)
}

func TestTagger_ExhaustedSourceStillReturns(t *testing.T) {
	tg := newTagger(func() int { return 2000 })

	assert.Equal(t, 2000, tg.next())
	assert.Equal(t, 2000, tg.next())
}

func TestRandomTag_InRange(t *testing.T) {
	for range 1000 {
		tag := randomTag()
		assert.GreaterOrEqual(t, tag, MinTag)
		assert.LessOrEqual(t, tag, MaxTag)
	}
}

func TestResolve_WritesJournal(t *testing.T) {
	fsys := testutil.MemFs(t, "/p")
	s, group := setupGroup(t, fsys, "a.jpg", "b.jpg")
	_, other := setupGroup(t, fsys, "c.png", "d.png")

	path := filepath.Join(t.TempDir(), "journal.jsonl")
	w, err := journal.NewWriter(path)
	require.NoError(t, err)

	renamer, err := New(s, Rename, fixedTag(3333), WithJournal(w))
	require.NoError(t, err)
	renamer.Resolve(group)

	deleter, err := New(s, Delete, WithJournal(w))
	require.NoError(t, err)
	deleter.Resolve(other)

	require.NoError(t, w.Close())

	entries, err := journal.Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, journal.TypeRename, entries[0].Type)
	assert.Equal(t, "b.jpg", entries[0].Source)
	assert.Equal(t, "DUPLICATE_3333_b.jpg", entries[0].Dest)
	assert.Equal(t, "a.jpg", entries[0].Retained)
	assert.Equal(t, 3333, entries[0].Tag)

	assert.Equal(t, journal.TypeDelete, entries[1].Type)
	assert.Equal(t, "d.png", entries[1].Source)
	assert.Equal(t, "c.png", entries[1].Retained)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Delete)
	assert.Error(t, err)

	s, err := storage.New(testutil.MemFs(t, "/p"), "/p")
	require.NoError(t, err)

	_, err = New(s, Policy(9))
	assert.Error(t, err)

	r, err := New(s, Delete)
	require.NoError(t, err)
	assert.Equal(t, Delete, r.Policy())
	assert.Equal(t, Prefix, r.Position())
}

func TestResult_Merge(t *testing.T) {
	var total Result
	total.Merge(Result{Operations: []Operation{{Path: "a"}}, Marked: 1})
	total.Merge(Result{Operations: []Operation{{Path: "b"}, {Path: "c"}}, Deleted: 1, ErrorCount: 1})

	assert.Len(t, total.Operations, 3)
	assert.Equal(t, 1, total.Marked)
	assert.Equal(t, 1, total.Deleted)
	assert.Equal(t, 1, total.ErrorCount)
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "report-only", ReportOnly.String())
	assert.Equal(t, "delete", Delete.String())
	assert.Equal(t, "rename", Rename.String())
	assert.True(t, strings.HasPrefix(Policy(7).String(), "Policy("))
}
