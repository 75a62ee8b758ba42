package classifier

import (
	"io/fs"
	"path"
	"testing"
	"time"

	"github.com/acronis/go-srcexport/pkg/rules"
	"github.com/stretchr/testify/require"
)

const srcRoot = "/src"

func testRules() *rules.RuleSet {
	return rules.MustNew(rules.Config{
		NonessentialDirs: []string{"foo", "v8/test"},
		TestDirs:         []string{"a/data", "b/data"},
		EssentialFiles:   []string{"foo/keep.txt", "v8/test/torque/test-torque.tq"},
		EssentialGitDirs: []string{"third_party/rust-src/"},
		ExcludeGlobs:     []string{"**/*.tmp"},
	})
}

func file(rel string) Entry {
	return Entry{Path: path.Join(srcRoot, rel), RelPath: rel, Name: path.Base(rel),
		Kind: KindRegular, TargetExists: true, ResolvesToFile: true}
}

func dir(rel string) Entry {
	return Entry{Path: path.Join(srcRoot, rel), RelPath: rel, Name: path.Base(rel),
		Kind: KindDir, TargetExists: true}
}

func symlink(rel string, exists, toFile bool) Entry {
	return Entry{Path: path.Join(srcRoot, rel), RelPath: rel, Name: path.Base(rel),
		Kind: KindSymlink, TargetExists: exists, ResolvesToFile: toFile}
}

type fakeInfo struct {
	name string
	mode fs.FileMode
}

func (i fakeInfo) Name() string       { return i.name }
func (i fakeInfo) Size() int64        { return 0 }
func (i fakeInfo) Mode() fs.FileMode  { return i.mode }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.mode.IsDir() }
func (i fakeInfo) Sys() any           { return nil }

func Test_Classify(t *testing.T) {
	type testcase struct {
		entry    Entry
		trim     bool
		decision Decision
		rule     string
	}

	socket := Entry{Path: "/src/run/agent.sock", RelPath: "run/agent.sock", Name: "agent.sock",
		Kind: KindOther, TargetExists: true, Info: fakeInfo{name: "agent.sock", mode: fs.ModeSocket}}

	testcases := map[string]testcase{
		"plain file":                      {entry: file("chrome/app.cc"), decision: Include, rule: RuleDefault},
		"dangling symlink":                {entry: symlink("foo/link", false, false), decision: Exclude, rule: RuleDanglingSymlink},
		"dangling symlink in trim mode":   {entry: symlink("base/link", false, false), trim: true, decision: Exclude, rule: RuleDanglingSymlink},
		"valid symlink":                   {entry: symlink("base/link", true, true), decision: Include, rule: RuleDefault},
		"socket":                          {entry: socket, decision: Exclude, rule: RuleUnsupportedType},
		"pycache directory":               {entry: dir("tools/__pycache__"), decision: Exclude, rule: RuleCompiledCache},
		"compiled python file":            {entry: file("tools/gen.pyc"), decision: Exclude, rule: RuleCompiledCache},
		"exclude glob":                    {entry: file("base/scratch.tmp"), decision: Exclude, rule: RuleExcludeGlob},
		"out directory":                   {entry: dir("out"), decision: Exclude, rule: RuleVCSWorkingCopy},
		"svn directory":                   {entry: dir("third_party/x/.svn"), decision: Exclude, rule: RuleVCSWorkingCopy},
		"out below node_modules":          {entry: dir("devtools/node_modules/pkg/out"), decision: Include, rule: RuleDefault},
		"git directory":                   {entry: dir("v8/.git"), decision: Exclude, rule: RuleGitMetadata},
		"git file":                        {entry: file(".git"), decision: Exclude, rule: RuleGitMetadata},
		"essential git directory":         {entry: dir("third_party/rust-src/library/.git"), decision: Include, rule: RuleDefault},
		"git directory in trimmed dir":    {entry: dir("foo/.git"), trim: true, decision: Exclude, rule: RuleGitMetadata},
		"changelog without trim":          {entry: file("foo/ChangeLog"), decision: Include, rule: RuleDefault},
		"changelog":                       {entry: file("foo/ChangeLog"), trim: true, decision: Exclude, rule: RuleChangeLog},
		"changelog beats keep marker":     {entry: file("base/ChangeLog.gn"), trim: true, decision: Exclude, rule: RuleChangeLog},
		"gyp file in trimmed dir":         {entry: file("foo/bar.gyp"), trim: true, decision: Include, rule: RuleKeepMarker},
		"gypi file in trimmed dir":        {entry: file("foo/common.gypi"), trim: true, decision: Include, rule: RuleKeepMarker},
		"gn file in trimmed dir":          {entry: file("foo/BUILD.gn"), trim: true, decision: Include, rule: RuleKeepMarker},
		"isolate file in trimmed dir":     {entry: file("a/data/x.isolate"), trim: true, decision: Include, rule: RuleKeepMarker},
		"grd file in trimmed dir":         {entry: file("foo/res.grd"), trim: true, decision: Include, rule: RuleKeepMarker},
		"pydeps file in trimmed dir":      {entry: file("v8/test/run.pydeps"), trim: true, decision: Include, rule: RuleKeepMarker},
		"essential file":                  {entry: file("v8/test/torque/test-torque.tq"), trim: true, decision: Include, rule: RuleKeepMarker},
		"nonessential file":               {entry: file("foo/data.bin"), trim: true, decision: Exclude, rule: RuleNonessentialContent},
		"nonessential file without trim":  {entry: file("foo/data.bin"), decision: Include, rule: RuleDefault},
		"test data file":                  {entry: file("b/data/sample.png"), trim: true, decision: Exclude, rule: RuleNonessentialContent},
		"nonessential directory":          {entry: dir("foo"), trim: true, decision: ExcludeContents, rule: RuleNonessentialContent},
		"nonessential subdirectory":       {entry: dir("v8/test/mjsunit"), trim: true, decision: ExcludeContents, rule: RuleNonessentialContent},
		"symlink to file in trimmed dir":  {entry: symlink("foo/link", true, true), trim: true, decision: Exclude, rule: RuleNonessentialContent},
		"symlink to dir in trimmed dir":   {entry: symlink("foo/link", true, false), trim: true, decision: Include, rule: RuleDefault},
		"prefix is a string prefix":       {entry: file("foobar/x.txt"), trim: true, decision: Exclude, rule: RuleNonessentialContent},
		"file outside trimmed dirs":       {entry: file("base/x.txt"), trim: true, decision: Include, rule: RuleDefault},
		"source root":                     {entry: dir("."), trim: true, decision: Include, rule: RuleDefault},
		"similar name is not a keep mark": {entry: file("foo/gyp.txt"), trim: true, decision: Exclude, rule: RuleNonessentialContent},
	}

	rs := testRules()
	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			res := New(rs, tc.trim).Classify(tc.entry)
			require.Equal(t, tc.decision, res.Decision, "rule %s", res.Rule)
			require.Equal(t, tc.rule, res.Rule)
		})
	}
}

func Test_ClassifyTrimmedDirectoriesAreKept(t *testing.T) {
	c := New(testRules(), true)
	for _, rel := range []string{"foo", "foo/a", "foo/a/b", "a/data", "a/data/nested", "v8/test/x"} {
		res := c.Classify(dir(rel))
		require.NotEqual(t, Exclude, res.Decision, rel)
	}
}

func Test_ClassifyIsIdempotent(t *testing.T) {
	c := New(testRules(), true)
	entries := []Entry{
		file("foo/ChangeLog"), dir(".git"), dir("third_party/rust-src/.git"),
		file("foo/bar.gyp"), symlink("x", false, false), file("base/a.cc"),
	}
	first := make([]Result, 0, len(entries))
	for _, e := range entries {
		first = append(first, c.Classify(e))
	}
	for i, e := range entries {
		require.Equal(t, first[i], c.Classify(e))
	}
}

func Test_RuleNames(t *testing.T) {
	names := RuleNames()
	require.Len(t, names, len(Rules)+1)
	require.Equal(t, RuleDanglingSymlink, names[0])
	require.Equal(t, RuleDefault, names[len(names)-1])
}
