package receipts

import (
	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/expiry"
)

// session is one user's receipt review. editing holds working copies of the
// items currently open for editing; they only reach draft on save.
type session struct {
	state   models.UploadState
	draft   *models.Receipt
	editing map[string]models.Item
}

func newSession() *session {
	return &session{
		state:   models.UploadState{Status: models.UploadIdle},
		editing: make(map[string]models.Item),
	}
}

func (s *session) indexOf(itemID string) int {
	if s.draft == nil {
		return -1
	}
	for i, item := range s.draft.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (s *session) view() models.DraftView {
	receipt := *s.draft
	receipt.Items = make([]models.Item, len(s.draft.Items))
	labels := make(map[string]string, len(s.draft.Items))
	for i, item := range s.draft.Items {
		receipt.Items[i] = item.Clone()
		labels[item.ID] = expiry.Label(item)
	}

	var editing map[string]models.Item
	if len(s.editing) > 0 {
		editing = make(map[string]models.Item, len(s.editing))
		for id, item := range s.editing {
			editing[id] = item.Clone()
		}
	}
	return models.DraftView{Receipt: receipt, Editing: editing, Labels: labels}
}
