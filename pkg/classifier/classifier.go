// Package classifier decides which entries of a source tree go into an export archive.
//
// Decisions come from an ordered list of named rules. The first rule that reaches a
// decision wins; rules that do not apply to an entry fall through to the next one.
package classifier

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/acronis/go-srcexport/pkg/rules"
)

type Decision int

const (
	Include Decision = iota
	Exclude
	// ExcludeContents keeps a directory as an empty entry and drops its file children.
	ExcludeContents
)

func (d Decision) String() string {
	switch d {
	case Include:
		return "INCLUDE"
	case Exclude:
		return "EXCLUDE"
	case ExcludeContents:
		return "EXCLUDE_CONTENTS"
	default:
		return "UNKNOWN"
	}
}

const (
	RuleUnsupportedType     = "unsupported-type"
	RuleDanglingSymlink     = "dangling-symlink"
	RuleCompiledCache       = "compiled-cache"
	RuleExcludeGlob         = "exclude-glob"
	RuleVCSWorkingCopy      = "vcs-working-copy"
	RuleGitMetadata         = "git-metadata"
	RuleChangeLog           = "changelog"
	RuleKeepMarker          = "keep-marker"
	RuleNonessentialContent = "nonessential-content"
	RuleDefault             = "default"
)

// Rule is one step of the decision list. Apply reports ok=false when the rule
// does not decide the entry.
type Rule struct {
	Name string
	// TrimOnly rules are evaluated only when nonessential files are removed.
	TrimOnly bool
	Apply    func(rs *rules.RuleSet, e Entry) (d Decision, ok bool)
}

// Rules is the evaluation order.
var Rules = []Rule{
	{Name: RuleDanglingSymlink, Apply: danglingSymlink},
	{Name: RuleUnsupportedType, Apply: unsupportedType},
	{Name: RuleCompiledCache, Apply: compiledCache},
	{Name: RuleExcludeGlob, Apply: excludeGlob},
	{Name: RuleVCSWorkingCopy, Apply: vcsWorkingCopy},
	{Name: RuleGitMetadata, Apply: gitMetadata},
	{Name: RuleChangeLog, TrimOnly: true, Apply: changeLog},
	{Name: RuleKeepMarker, TrimOnly: true, Apply: keepMarker},
	{Name: RuleNonessentialContent, TrimOnly: true, Apply: nonessentialContent},
}

// RuleNames lists rule names in evaluation order, the default rule last.
func RuleNames() []string {
	names := make([]string, 0, len(Rules)+1)
	for _, r := range Rules {
		names = append(names, r.Name)
	}
	return append(names, RuleDefault)
}

// Result is a decision together with the name of the rule that made it.
type Result struct {
	Decision Decision
	Rule     string
}

type Classifier struct {
	rules *rules.RuleSet
	trim  bool
}

func New(rs *rules.RuleSet, trim bool) *Classifier {
	return &Classifier{rules: rs, trim: trim}
}

func (c *Classifier) Classify(e Entry) Result {
	for _, r := range Rules {
		if r.TrimOnly && !c.trim {
			continue
		}
		if d, ok := r.Apply(c.rules, e); ok {
			return Result{Decision: d, Rule: r.Name}
		}
	}
	return Result{Decision: Include, Rule: RuleDefault}
}

func danglingSymlink(_ *rules.RuleSet, e Entry) (Decision, bool) {
	if e.Kind == KindSymlink && !e.TargetExists {
		return Exclude, true
	}
	return Include, false
}

// unsupportedType drops sockets, which the tar format cannot represent.
func unsupportedType(_ *rules.RuleSet, e Entry) (Decision, bool) {
	if e.Kind == KindOther && e.Info != nil && e.Info.Mode()&fs.ModeSocket != 0 {
		return Exclude, true
	}
	return Include, false
}

func compiledCache(_ *rules.RuleSet, e Entry) (Decision, bool) {
	if e.Name == "__pycache__" || strings.HasSuffix(e.Name, ".pyc") {
		return Exclude, true
	}
	return Include, false
}

func excludeGlob(rs *rules.RuleSet, e Entry) (Decision, bool) {
	if _, ok := rs.MatchExcludeGlob(e.RelPath); ok {
		return Exclude, true
	}
	return Include, false
}

// vcsWorkingCopy drops .svn and out, except below node_modules where packages
// ship their build output in out/.
func vcsWorkingCopy(_ *rules.RuleSet, e Entry) (Decision, bool) {
	if e.Name != ".svn" && e.Name != "out" {
		return Include, false
	}
	if strings.Contains(filepath.Dir(e.Path), "node_modules") {
		return Include, false
	}
	return Exclude, true
}

func gitMetadata(rs *rules.RuleSet, e Entry) (Decision, bool) {
	if e.Name != ".git" || rs.IsEssentialGitDir(e.RelPath) {
		return Include, false
	}
	return Exclude, true
}

func changeLog(_ *rules.RuleSet, e Entry) (Decision, bool) {
	if strings.Contains(e.RelPath, "ChangeLog") {
		return Exclude, true
	}
	return Include, false
}

// keepMarker keeps build descriptors that gn gen and gyp read even when the
// surrounding directory is trimmed.
func keepMarker(rs *rules.RuleSet, e Entry) (Decision, bool) {
	for _, marker := range []string{".gyp", ".gn", ".isolate", ".grd"} {
		if strings.Contains(e.Name, marker) {
			return Include, true
		}
	}
	if strings.HasSuffix(e.Name, ".pydeps") || rs.IsEssentialFile(e.RelPath) {
		return Include, true
	}
	return Include, false
}

// nonessentialContent empties trimmed directories. The directories stay because
// their presence drives build graph generation.
func nonessentialContent(rs *rules.RuleSet, e Entry) (Decision, bool) {
	if _, ok := rs.TrimmedPrefix(e.RelPath); !ok {
		return Include, false
	}
	switch {
	case e.ResolvesToFile:
		return Exclude, true
	case e.Kind == KindDir:
		return ExcludeContents, true
	default:
		return Include, false
	}
}
