package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/masmgr/gitstream/history"
)

// JSONSignature is the JSON form of an author or committer.
type JSONSignature struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	When  string `json:"when"`
}

// JSONFileChange is the JSON form of one changed file.
type JSONFileChange struct {
	Path          string  `json:"path"`
	OldPath       string  `json:"oldPath,omitempty"`
	Kind          string  `json:"kind"`
	Mode          string  `json:"mode,omitempty"`
	Blob          string  `json:"blob,omitempty"`
	LinesAdded    int     `json:"linesAdded"`
	LinesDeleted  int     `json:"linesDeleted"`
	Binary        bool    `json:"binary,omitempty"`
	Content       *string `json:"content,omitempty"`
	ContentBase64 []byte  `json:"contentBase64,omitempty"`
	Patch         string  `json:"patch,omitempty"`
}

// JSONCommitStats is the JSON form of per-commit metrics.
type JSONCommitStats struct {
	Files       int     `json:"files"`
	Directories int     `json:"directories"`
	Subsystems  int     `json:"subsystems"`
	Added       int     `json:"added"`
	Deleted     int     `json:"deleted"`
	Entropy     float64 `json:"entropy"`
}

// JSONCommit is the JSON form of one commit record.
type JSONCommit struct {
	Hash      string           `json:"hash"`
	Tree      string           `json:"tree"`
	Parents   []string         `json:"parents"`
	Author    JSONSignature    `json:"author"`
	Committer JSONSignature    `json:"committer"`
	Refs      []string         `json:"refs,omitempty"`
	Encoding  string           `json:"encoding,omitempty"`
	Message   string           `json:"message"`
	Files     []JSONFileChange `json:"files,omitempty"`
	Stats     *JSONCommitStats `json:"stats,omitempty"`
}

func toJSONSignature(s history.Signature) JSONSignature {
	return JSONSignature{Name: s.Name, Email: s.Email, When: s.When.Format(time.RFC3339)}
}

func toJSONCommit(rec CommitRecord) JSONCommit {
	c := rec.Commit
	parents := c.ParentHashes
	if parents == nil {
		parents = []string{}
	}
	jc := JSONCommit{
		Hash:      c.Hash,
		Tree:      c.TreeHash,
		Parents:   parents,
		Author:    toJSONSignature(c.Author),
		Committer: toJSONSignature(c.Committer),
		Refs:      c.RefNames,
		Encoding:  c.Encoding,
		Message:   c.Message,
	}
	if rec.Files != nil {
		jc.Files = make([]JSONFileChange, len(rec.Files))
		for i, f := range rec.Files {
			jc.Files[i] = toJSONFileChange(f)
		}
	}
	if m := rec.Metrics; m != nil {
		jc.Stats = &JSONCommitStats{
			Files:       m.FileCount,
			Directories: m.DirectoryCount,
			Subsystems:  m.SubsystemCount,
			Added:       m.LinesAdded,
			Deleted:     m.LinesDeleted,
			Entropy:     m.ChangeEntropy,
		}
	}
	return jc
}

func toJSONFileChange(f FileRecord) JSONFileChange {
	c := f.Change
	jf := JSONFileChange{
		Path:         c.Path,
		OldPath:      c.OldPath,
		Kind:         c.Kind.String(),
		LinesAdded:   c.LinesAdded,
		LinesDeleted: c.LinesDeleted,
		Binary:       c.Binary,
	}
	if c.HasContent() {
		jf.Mode = c.Mode.String()
		jf.Blob = c.Blob
	}
	if f.Content != nil {
		if !c.Binary && utf8.Valid(f.Content) {
			s := string(f.Content)
			jf.Content = &s
		} else {
			jf.ContentBase64 = f.Content
		}
	}
	jf.Patch = f.Patch
	return jf
}

// JSONCommitWriter writes a single JSON document whose commits array is
// emitted element by element.
type JSONCommitWriter struct {
	out     io.Writer
	written int
}

// Begin opens the document.
func (w *JSONCommitWriter) Begin(header LogHeader) error {
	repo, err := json.Marshal(header.RepoPath)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w.out, "{\n  \"repo\": %s,\n  \"generatedAt\": %q,\n  \"commits\": [", repo, header.GeneratedAt.Format(time.RFC3339))
	return err
}

// WriteCommit appends one element to the commits array.
func (w *JSONCommitWriter) WriteCommit(rec CommitRecord) error {
	data, err := json.Marshal(toJSONCommit(rec))
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	sep := ","
	if w.written == 0 {
		sep = ""
	}
	w.written++
	_, err = fmt.Fprintf(w.out, "%s\n    %s", sep, data)
	return err
}

// End closes the array and the document.
func (w *JSONCommitWriter) End(total int) error {
	nl := "\n  "
	if w.written == 0 {
		nl = ""
	}
	_, err := fmt.Fprintf(w.out, "%s],\n  \"total\": %d\n}\n", nl, total)
	return err
}

// JSONStatsReport is the JSON output structure for a stats report.
type JSONStatsReport struct {
	RepoPath      string            `json:"repo"`
	Since         *string           `json:"since,omitempty"`
	Until         *string           `json:"until,omitempty"`
	GeneratedAt   string            `json:"generatedAt"`
	Commits       int               `json:"commits"`
	Merges        int               `json:"merges"`
	Roots         int               `json:"roots"`
	FirstCommitAt string            `json:"firstCommitAt,omitempty"`
	LastCommitAt  string            `json:"lastCommitAt,omitempty"`
	TotalFiles    int               `json:"totalFiles"`
	TotalAuthors  int               `json:"totalAuthors"`
	Changes       map[string]int    `json:"changes"`
	Files         []JSONFileMetrics `json:"files"`
	Authors       []JSONAuthor      `json:"authors"`
	Couplings     []JSONCoupling    `json:"couplings,omitempty"`
	Bugfix        *JSONBugfix       `json:"bugfix,omitempty"`
}

// JSONBugfix holds bugfix detection totals in JSON format.
type JSONBugfix struct {
	Commits int              `json:"commits"`
	Files   []JSONBugfixFile `json:"files"`
}

// JSONBugfixFile is one path with its bugfix commit count.
type JSONBugfixFile struct {
	Path  string  `json:"path"`
	Fixes int     `json:"fixes"`
	Score float64 `json:"score"`
}

// JSONCoupling holds one co-changed file pair in JSON format.
type JSONCoupling struct {
	FileA         string  `json:"fileA"`
	FileB         string  `json:"fileB"`
	CoCommitCount int     `json:"coCommitCount"`
	Jaccard       float64 `json:"jaccard"`
	Confidence    float64 `json:"confidence"`
	Lift          float64 `json:"lift"`
}

// JSONFileMetrics holds the metrics for a file in JSON format.
type JSONFileMetrics struct {
	Path           string  `json:"path"`
	CommitCount    int     `json:"commitCount"`
	ChurnAdded     int     `json:"churnAdded"`
	ChurnDeleted   int     `json:"churnDeleted"`
	ChurnTotal     int     `json:"churnTotal"`
	FirstSeen      string  `json:"firstSeen"`
	LastModified   string  `json:"lastModified"`
	Contributors   int     `json:"contributors"`
	OwnershipRatio float64 `json:"ownershipRatio"`
	Deleted        bool    `json:"deleted,omitempty"`
	Binary         bool    `json:"binary,omitempty"`
}

// JSONAuthor holds per-author totals in JSON format.
type JSONAuthor struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	CommitCount  int    `json:"commitCount"`
	LinesAdded   int    `json:"linesAdded"`
	LinesDeleted int    `json:"linesDeleted"`
	FirstCommit  string `json:"firstCommit"`
	LastCommit   string `json:"lastCommit"`
}

func toJSONStatsReport(report *StatsReport, top int) JSONStatsReport {
	s := report.Summary
	out := JSONStatsReport{
		RepoPath:     report.RepoPath,
		Since:        formatOptionalDate(report.Since),
		Until:        formatOptionalDate(report.Until),
		GeneratedAt:  report.GeneratedAt.Format(time.RFC3339),
		Commits:      s.Commits,
		Merges:       s.Merges,
		Roots:        s.Roots,
		TotalFiles:   s.FileCount(),
		TotalAuthors: s.AuthorCount(),
		Changes:      make(map[string]int, len(s.KindCounts)),
		Files:        []JSONFileMetrics{},
		Authors:      []JSONAuthor{},
	}
	if s.Commits > 0 {
		out.FirstCommitAt = s.FirstCommitAt.Format(time.RFC3339)
		out.LastCommitAt = s.LastCommitAt.Format(time.RFC3339)
	}
	for kind, n := range s.KindCounts {
		out.Changes[kind.String()] = n
	}
	for _, f := range s.TopFiles(top) {
		out.Files = append(out.Files, JSONFileMetrics{
			Path:           f.Path,
			CommitCount:    f.CommitCount,
			ChurnAdded:     f.AddedLines,
			ChurnDeleted:   f.DeletedLines,
			ChurnTotal:     f.ChurnTotal(),
			FirstSeen:      f.FirstSeenAt.Format(time.RFC3339),
			LastModified:   f.LastModifiedAt.Format(time.RFC3339),
			Contributors:   f.ContributorCount(),
			OwnershipRatio: f.OwnershipRatio(),
			Deleted:        f.Deleted,
			Binary:         f.Binary,
		})
	}
	for _, a := range s.TopAuthors(top) {
		out.Authors = append(out.Authors, JSONAuthor{
			Name:         a.Name,
			Email:        a.Email,
			CommitCount:  a.CommitCount,
			LinesAdded:   a.LinesAdded,
			LinesDeleted: a.LinesDeleted,
			FirstCommit:  a.FirstCommitAt.Format(time.RFC3339),
			LastCommit:   a.LastCommitAt.Format(time.RFC3339),
		})
	}
	if report.Bugfix != nil {
		out.Bugfix = &JSONBugfix{Commits: report.Bugfix.TotalBugfixes, Files: []JSONBugfixFile{}}
		for _, f := range report.Bugfix.TopFiles(top) {
			out.Bugfix.Files = append(out.Bugfix.Files, JSONBugfixFile{Path: f.Path, Fixes: f.Fixes, Score: f.Score})
		}
	}
	if report.Coupling != nil {
		out.Couplings = []JSONCoupling{}
		for _, c := range report.Coupling.Couplings {
			out.Couplings = append(out.Couplings, JSONCoupling{
				FileA:         c.FileA,
				FileB:         c.FileB,
				CoCommitCount: c.CoCommitCount,
				Jaccard:       c.JaccardCoefficient,
				Confidence:    c.Confidence,
				Lift:          c.Lift,
			})
		}
	}
	return out
}

// JSONStatsWriter writes stats reports as JSON.
type JSONStatsWriter struct{}

// Write outputs the stats report as JSON.
func (w *JSONStatsWriter) Write(report *StatsReport, options OutputOptions) error {
	return writeJSON(toJSONStatsReport(report, options.Top), options.OutputPath)
}

func writeJSON(data interface{}, outputPath string) (err error) {
	out, closeOut, err := OpenOutput(outputPath)
	if err != nil {
		return err
	}
	defer CloseOutput(closeOut, &err)

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
