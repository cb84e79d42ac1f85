package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/sophialabs/redirectlint/internal/domain/redirect"
	"github.com/sophialabs/redirectlint/internal/domain/report"
	"github.com/sophialabs/redirectlint/internal/infrastructure/usecases"
	"github.com/sophialabs/redirectlint/internal/testutil"
)

type mockRepo struct {
	order       []string
	docs        map[string]string
	readErrs    map[string]error
	discoverErr error
}

func newMockRepo(files ...string) *mockRepo {
	r := &mockRepo{docs: map[string]string{}, readErrs: map[string]error{}}
	for i := 0; i+1 < len(files); i += 2 {
		r.order = append(r.order, files[i])
		r.docs[files[i]] = files[i+1]
	}
	return r
}

func (r *mockRepo) Discover(_ context.Context) ([]string, error) {
	if r.discoverErr != nil {
		if _, partial := redirect.Skipped(r.discoverErr); partial {
			return r.order, r.discoverErr
		}
		return nil, r.discoverErr
	}
	return r.order, nil
}

func (r *mockRepo) ReadDocument(_ context.Context, file string) (*yaml.Node, error) {
	if err, ok := r.readErrs[file]; ok {
		return nil, fmt.Errorf("%w: %w", redirect.ErrRead, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(r.docs[file]), &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", redirect.ErrParse, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

func load(t *testing.T, repo redirect.Repository) (*redirect.Catalog, []report.Record) {
	t.Helper()
	sink := report.NewCollector()
	uc := usecases.NewLoadRedirectsUseCase(repo, &testutil.NoopLogger{})
	catalog, err := uc.Execute(context.Background(), sink)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if catalog == nil {
		t.Fatal("catalog must never be nil")
	}
	return catalog, sink.Drain()
}

func headlines(records []report.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Headline)
	}
	return out
}

func TestLoadRedirects_OrderAndNormalization(t *testing.T) {
	repo := newMockRepo(
		"a.yaml", "- from: /About\n  to: https://example.org/About\n- from: Blog\n  to: https://blog.example.org\n",
		"b.yaml", "- from: //docs\n  to: https://docs.example.org\n",
	)

	catalog, records := load(t, repo)
	if len(records) != 0 {
		t.Fatalf("unexpected records: %v", headlines(records))
	}

	want := []redirect.Pair{
		{From: "about", To: "https://example.org/About"},
		{From: "blog", To: "https://blog.example.org"},
		{From: "docs", To: "https://docs.example.org"},
	}
	if !reflect.DeepEqual(catalog.Pairs(), want) {
		t.Errorf("Pairs() = %v, want %v", catalog.Pairs(), want)
	}
	if catalog.Entries[2].Source != (redirect.Source{File: "b.yaml", Index: 1}) {
		t.Errorf("unexpected provenance %+v", catalog.Entries[2].Source)
	}
	if !reflect.DeepEqual(catalog.Files, []string{"a.yaml", "b.yaml"}) {
		t.Errorf("Files = %v", catalog.Files)
	}
}

func TestLoadRedirects_Idempotent(t *testing.T) {
	repo := newMockRepo(
		"a.yaml", "- from: x\n  to: https://x.test\n- from: y\n  to: https://y.test\n",
		"b.yaml", "- from: z\n  to: https://z.test\n",
	)
	first, _ := load(t, repo)
	second, _ := load(t, repo)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("loads differ:\n%v\n%v", first, second)
	}
}

func TestLoadRedirects_SourceLevelFailuresSkipOnlyThatSource(t *testing.T) {
	repo := newMockRepo(
		"bad.yaml", "- from: a\n  to: [unclosed\n",
		"good.yaml", "- from: ok\n  to: https://ok.test\n",
		"map.yaml", "from: a\nto: b\n",
		"gone.yaml", "",
		"empty.yaml", "",
	)
	repo.readErrs["gone.yaml"] = errors.New("permission denied")

	catalog, records := load(t, repo)

	if catalog.Len() != 1 || catalog.Entries[0].From != "ok" {
		t.Fatalf("expected only the good entry, got %v", catalog.Pairs())
	}
	want := []string{
		"Couldn't parse bad.yaml. Make sure it is valid YAML.",
		"map.yaml is not a list",
		"Couldn't read gone.yaml",
		"empty.yaml is not a list",
	}
	if !reflect.DeepEqual(headlines(records), want) {
		t.Errorf("records = %q, want %q", headlines(records), want)
	}
	if !strings.Contains(records[2].Details[0], "permission denied") {
		t.Errorf("expected read error detail, got %v", records[2].Details)
	}
}

func TestLoadRedirects_RecordLevelFailures(t *testing.T) {
	repo := newMockRepo("links.yaml", strings.Join([]string{
		"- just text",
		"- to: https://no-from.test",
		"- from: no-to",
		"- from: good",
		"  to: https://good.test",
		"- from: ''",
		"  to: ''",
	}, "\n"))

	catalog, records := load(t, repo)

	if catalog.Len() != 1 || catalog.Entries[0].From != "good" {
		t.Fatalf("expected only the good entry, got %v", catalog.Pairs())
	}
	if catalog.Entries[0].Source.Index != 4 {
		t.Errorf("expected index 4, got %d", catalog.Entries[0].Source.Index)
	}
	want := []string{
		"links.yaml entry 1 is not an object",
		`links.yaml entry 2 "from" field missing`,
		`links.yaml entry 3 "to" field missing`,
		`links.yaml entry 5 "from" field invalid`,
		`links.yaml entry 5 "to" field invalid`,
	}
	if !reflect.DeepEqual(headlines(records), want) {
		t.Errorf("records = %q, want %q", headlines(records), want)
	}
}

func TestLoadRedirects_DuplicatesAcrossSources(t *testing.T) {
	repo := newMockRepo(
		"a.yaml", "- from: /About\n  to: https://a.test\n",
		"b.yaml", "- from: other\n  to: https://o.test\n- from: about\n  to: https://b.test\n",
	)

	catalog, records := load(t, repo)

	if catalog.Len() != 3 {
		t.Errorf("duplicates must stay in the list, got %d entries", catalog.Len())
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %q", headlines(records))
	}
	if records[0].Headline != `"from: about" appears 2 time(s)` {
		t.Errorf("headline = %q", records[0].Headline)
	}
	if !reflect.DeepEqual(records[0].Details, []string{"a.yaml entry 1", "b.yaml entry 2"}) {
		t.Errorf("details = %v", records[0].Details)
	}
}

func TestLoadRedirects_DuplicateDetectionIgnoresToValidity(t *testing.T) {
	repo := newMockRepo("a.yaml", "- from: x\n  to: https://x.test\n- from: X\n")

	catalog, records := load(t, repo)

	if catalog.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", catalog.Len())
	}
	want := []string{
		`a.yaml entry 2 "to" field missing`,
		`"from: x" appears 2 time(s)`,
	}
	if !reflect.DeepEqual(headlines(records), want) {
		t.Errorf("records = %q, want %q", headlines(records), want)
	}
}

func TestLoadRedirects_NoSources(t *testing.T) {
	catalog, records := load(t, newMockRepo())

	if catalog.Len() != 0 {
		t.Errorf("expected empty catalog, got %d", catalog.Len())
	}
	if !reflect.DeepEqual(headlines(records), []string{"No redirects"}) {
		t.Errorf("records = %q", headlines(records))
	}
}

func TestLoadRedirects_AllSourcesFail(t *testing.T) {
	repo := newMockRepo("a.yaml", ": : :", "b.yaml", "42")

	catalog, records := load(t, repo)

	if catalog.Len() != 0 {
		t.Errorf("expected empty catalog, got %d", catalog.Len())
	}
	got := headlines(records)
	if got[len(got)-1] != "No redirects" {
		t.Errorf("expected trailing No redirects, got %q", got)
	}
}

func TestLoadRedirects_DiscoverFailure(t *testing.T) {
	repo := newMockRepo()
	repo.discoverErr = errors.New("walk failed")

	catalog, records := load(t, repo)

	if catalog.Len() != 0 {
		t.Errorf("expected empty catalog")
	}
	want := []string{"Couldn't list redirect files", "No redirects"}
	if !reflect.DeepEqual(headlines(records), want) {
		t.Errorf("records = %q, want %q", headlines(records), want)
	}
}

func TestLoadRedirects_SkippedDirectoryKeepsOtherSources(t *testing.T) {
	repo := newMockRepo("a.yaml", "- from: a\n  to: https://a.test\n")
	repo.discoverErr = errors.Join(
		&redirect.SkippedError{Path: "locked", Err: errors.New("permission denied")},
		&redirect.SkippedError{Path: "team/private", Err: errors.New("permission denied")},
	)

	catalog, records := load(t, repo)

	if catalog.Len() != 1 {
		t.Errorf("expected the readable source to load, got %d entries", catalog.Len())
	}
	want := []string{"Couldn't read locked", "Couldn't read team/private"}
	if !reflect.DeepEqual(headlines(records), want) {
		t.Errorf("records = %q, want %q", headlines(records), want)
	}
	if records[0].Details[0] != "permission denied" {
		t.Errorf("details = %q", records[0].Details)
	}
}

func TestLoadRedirects_CancelledContext(t *testing.T) {
	repo := newMockRepo("a.yaml", "- from: a\n  to: b\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc := usecases.NewLoadRedirectsUseCase(repo, &testutil.NoopLogger{})
	catalog, err := uc.Execute(ctx, report.NewCollector())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if catalog == nil {
		t.Error("catalog must never be nil")
	}
}
