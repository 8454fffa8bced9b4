package agent

import (
	"github.com/wayfare/learnctl/internal/ctxbuild"
	"github.com/wayfare/learnctl/internal/links"
	"github.com/wayfare/learnctl/internal/vault"
)

// vaultNoteSource adapts a vault.Store + links.Engine pair into the
// ctxbuild.NoteSource interface the Context Manager needs: note bodies
// come from the Note Store, outgoing edges from the Link Engine.
type vaultNoteSource struct {
	deps Deps
}

// NewNoteSource builds the ctxbuild.NoteSource the Context Manager needs
// from a Note Store and Link Engine, for use by the app wiring layer.
func NewNoteSource(store *vault.Store, engine *links.Engine) ctxbuild.NoteSource {
	return vaultNoteSource{deps: Deps{Vault: store, Links: engine}}
}

func (s vaultNoteSource) ReadSummary(slug string) (title, summary, body string, ok bool) {
	note, err := s.deps.Vault.Read(slug)
	if err != nil {
		return "", "", "", false
	}
	return note.Title, note.Summary, note.Body, true
}

func (s vaultNoteSource) Outgoing(slug string) []string {
	return s.deps.Links.Outgoing(slug)
}
