package processor

import (
	"fmt"

	"github.com/starford/frontdate/internal/apperr"
	"github.com/starford/frontdate/internal/caldate"
	"github.com/starford/frontdate/internal/frontmatter"
	"github.com/starford/frontdate/internal/reconcile"
	"github.com/starford/frontdate/internal/storage"
)

// Record is one content file loaded for reconciliation. Only the "date" and
// "updated" keys of its front matter are ever modified.
type Record struct {
	Path    string
	doc     *frontmatter.Document
	block   *frontmatter.Block
	changed bool
}

// Load reads and splits the file at path and parses its front matter.
func Load(store storage.Provider, path string) (*Record, error) {
	data, err := store.Read(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse builds a Record from raw file content.
func Parse(path string, data []byte) (*Record, error) {
	doc, err := frontmatter.Split(string(data))
	if err != nil {
		return nil, err
	}
	block, err := frontmatter.ParseBlock(doc.FrontMatter)
	if err != nil {
		return nil, err
	}
	return &Record{Path: path, doc: doc, block: block}, nil
}

// Value returns the front matter slot for key as the reconciler sees it.
func (r *Record) Value(key string) reconcile.Value {
	return toValue(r.block, key)
}

// Changed reports whether Apply modified the record.
func (r *Record) Changed() bool { return r.changed }

// Apply writes a reconciliation result into the front matter. A key whose
// calendar date is already correct keeps its original text.
func (r *Record) Apply(res reconcile.Result) error {
	if !res.Changed {
		return nil
	}

	if !sameDate(r.Value(reconcile.FieldDate), res.Date) {
		r.block.SetDate(reconcile.FieldDate, res.Date, "")
	}
	switch {
	case res.Updated.IsZero():
		r.block.Delete(reconcile.FieldUpdated)
	case !sameDate(r.Value(reconcile.FieldUpdated), res.Updated):
		r.block.SetDate(reconcile.FieldUpdated, res.Updated, reconcile.FieldDate)
	}

	// Decode the edited block again so a broken splice never reaches disk.
	check, err := frontmatter.ParseBlock(r.block.String())
	if err != nil {
		return fmt.Errorf("processor: edited front matter is invalid: %w", err)
	}
	if got := toValue(check, reconcile.FieldDate); !sameDate(got, res.Date) {
		return fmt.Errorf("processor: edited date is %s, want %s", got, res.Date)
	}
	got := toValue(check, reconcile.FieldUpdated)
	if res.Updated.IsZero() != !got.Present() || (!res.Updated.IsZero() && !sameDate(got, res.Updated)) {
		return fmt.Errorf("processor: edited updated is %s, want %s", got, res.Updated)
	}

	r.doc.FrontMatter = r.block.String()
	r.changed = true
	return nil
}

// Bytes renders the whole file.
func (r *Record) Bytes() []byte {
	return r.doc.Render()
}

// Write stores the record. It refuses to write an unchanged record.
func (r *Record) Write(store storage.Provider) error {
	if !r.changed {
		return apperr.ErrUnchanged
	}
	return store.Write(r.Path, r.Bytes())
}

func toValue(b *frontmatter.Block, key string) reconcile.Value {
	v, ok := b.Get(key)
	if !ok {
		return reconcile.Value{}
	}
	if d, ok := caldate.FromTOML(v); ok {
		return reconcile.DateValue(d)
	}
	return reconcile.OtherValue(frontmatter.TypeName(v))
}

func sameDate(v reconcile.Value, d caldate.Date) bool {
	got, ok := v.Date()
	return ok && got.Equal(d)
}
