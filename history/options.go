package history

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Order selects the direction of the log traversal.
type Order int

const (
	// OrderDefault is git's native order: newest first.
	OrderDefault Order = iota
	// OrderReverse yields the oldest commit first.
	OrderReverse
)

func (o Order) String() string {
	if o == OrderReverse {
		return "reverse"
	}
	return "default"
}

// ParseOrder parses "default" (or "newest") and "reverse" (or "oldest").
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "newest":
		return OrderDefault, nil
	case "reverse", "oldest":
		return OrderReverse, nil
	default:
		return OrderDefault, fmt.Errorf("invalid order %q (expected default or reverse)", s)
	}
}

// Traversal selects how git sorts commits that are not ordered by ancestry.
type Traversal int

const (
	TraversalDefault Traversal = iota
	TraversalDateOrder
	TraversalTopoOrder
)

func (t Traversal) String() string {
	switch t {
	case TraversalDateOrder:
		return "date"
	case TraversalTopoOrder:
		return "topo"
	default:
		return "default"
	}
}

// ParseTraversal parses "default", "date" or "topo".
func ParseTraversal(s string) (Traversal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return TraversalDefault, nil
	case "date", "date-order":
		return TraversalDateOrder, nil
	case "topo", "topo-order":
		return TraversalTopoOrder, nil
	default:
		return TraversalDefault, fmt.Errorf("invalid traversal %q (expected default, date or topo)", s)
	}
}

// RenameDetectMode controls how file renames are detected.
type RenameDetectMode int

const (
	RenameDetectOff RenameDetectMode = iota
	RenameDetectSimple
	RenameDetectAggressive
)

func (m RenameDetectMode) String() string {
	switch m {
	case RenameDetectOff:
		return "off"
	case RenameDetectAggressive:
		return "aggressive"
	default:
		return "simple"
	}
}

// ParseRenameDetectMode accepts the mode names and their common aliases.
func ParseRenameDetectMode(s string) (RenameDetectMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "simple", "exact", "true", "on":
		return RenameDetectSimple, nil
	case "off", "false", "none", "no":
		return RenameDetectOff, nil
	case "aggressive", "similarity", "fuzzy":
		return RenameDetectAggressive, nil
	default:
		return RenameDetectSimple, fmt.Errorf("invalid rename detection mode %q (expected off, simple or aggressive)", s)
	}
}

func (m RenameDetectMode) diffArg() string {
	switch m {
	case RenameDetectOff:
		return "--no-renames"
	case RenameDetectAggressive:
		// Match go-git's default similarity threshold (60).
		return "-M60%"
	default:
		return "-M100%"
	}
}

// DecodePolicy decides what happens to commit text that is not valid UTF-8.
type DecodePolicy int

const (
	// DecodeReplace substitutes U+FFFD for invalid byte sequences.
	DecodeReplace DecodePolicy = iota
	// DecodeStrict fails the record with an *EncodingError.
	DecodeStrict
)

func (p DecodePolicy) String() string {
	if p == DecodeStrict {
		return "strict"
	}
	return "replace"
}

// ParseDecodePolicy parses "replace" or "strict".
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "replace":
		return DecodeReplace, nil
	case "strict":
		return DecodeStrict, nil
	default:
		return DecodeReplace, fmt.Errorf("invalid decode policy %q (expected replace or strict)", s)
	}
}

// OpenOptions configures a Repository.
type OpenOptions struct {
	GitBinary    string // defaults to "git"
	Logger       *slog.Logger
	Decode       DecodePolicy
	RenameDetect RenameDetectMode
	Include      []string // glob patterns applied to enumerated files
	Exclude      []string
	// SkipVersionCheck disables the minimum git version check in Open.
	SkipVersionCheck bool
}

// LogOptions selects and orders the commits of one iteration.
type LogOptions struct {
	Revisions  []string // defaults to HEAD
	All        bool     // every ref instead of Revisions
	Paths      []string
	Since      *time.Time
	Until      *time.Time
	Authors    []string // regex patterns, any may match
	Committers []string
	MinParents int
	MaxParents int // 0 means unlimited
	NoMerges   bool
	Skip       int
	MaxCount   int // 0 means unlimited
	Order      Order
	Traversal  Traversal
}

// orderArgs covers traversal, direction and the skip/count window.
func (o LogOptions) orderArgs() []string {
	var args []string
	switch o.Traversal {
	case TraversalDateOrder:
		args = append(args, "--date-order")
	case TraversalTopoOrder:
		args = append(args, "--topo-order")
	}
	if o.Order == OrderReverse {
		args = append(args, "--reverse")
	}
	if o.Skip > 0 {
		args = append(args, fmt.Sprintf("--skip=%d", o.Skip))
	}
	if o.MaxCount > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", o.MaxCount))
	}
	return args
}

func (o LogOptions) filterArgs() []string {
	var args []string
	if o.All {
		args = append(args, "--all")
	}
	if o.NoMerges {
		args = append(args, "--no-merges")
	}
	if o.MinParents > 0 {
		args = append(args, fmt.Sprintf("--min-parents=%d", o.MinParents))
	}
	if o.MaxParents > 0 {
		args = append(args, fmt.Sprintf("--max-parents=%d", o.MaxParents))
	}
	for _, a := range o.Authors {
		args = append(args, "--author="+a)
	}
	for _, c := range o.Committers {
		args = append(args, "--committer="+c)
	}
	if o.Since != nil {
		args = append(args, fmt.Sprintf("--since=@%d", o.Since.Unix()))
	}
	if o.Until != nil {
		args = append(args, fmt.Sprintf("--until=@%d", o.Until.Unix()))
	}
	return args
}

func (o LogOptions) revisionArgs() []string {
	var args []string
	if !o.All {
		for _, rev := range o.Revisions {
			if rev = strings.TrimSpace(rev); rev != "" {
				args = append(args, rev)
			}
		}
	}
	args = append(args, "--")
	args = append(args, o.Paths...)
	return args
}

// usesImplicitHead reports whether the traversal starts at HEAD only.
func (o LogOptions) usesImplicitHead() bool {
	if o.All {
		return false
	}
	for _, rev := range o.Revisions {
		if strings.TrimSpace(rev) != "" {
			return false
		}
	}
	return true
}
