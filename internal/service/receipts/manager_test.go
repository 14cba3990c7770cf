package receipts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/repository/memory"
	"github.com/mamadbah2/expiry-tracker/pkg/clients/anthropic"
)

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type fakeExtractor struct {
	receipt   models.ExtractedReceipt
	err       error
	mediaType string
}

func (f *fakeExtractor) ExtractReceipt(_ context.Context, _ []byte, mediaType string) (models.ExtractedReceipt, error) {
	f.mediaType = mediaType
	if f.err != nil {
		return models.ExtractedReceipt{}, f.err
	}
	out := f.receipt
	out.Items = make([]models.Item, len(f.receipt.Items))
	for i, item := range f.receipt.Items {
		out.Items[i] = item.Clone()
	}
	return out, nil
}

type fakeEstimator struct {
	days int
	err  error
	seen []string
}

func (f *fakeEstimator) EstimateShelfLife(_ context.Context, name string) (int, error) {
	f.seen = append(f.seen, name)
	return f.days, f.err
}

// panicOnce panics on the first extraction and then delegates.
type panicOnce struct {
	fakeExtractor
	calls int
}

func (p *panicOnce) ExtractReceipt(ctx context.Context, image []byte, mediaType string) (models.ExtractedReceipt, error) {
	p.calls++
	if p.calls == 1 {
		panic("decoder blew up")
	}
	return p.fakeExtractor.ExtractReceipt(ctx, image, mediaType)
}

// failOnce fails the first save and then writes through to the store.
type failOnce struct {
	store *memory.Store
	calls int
}

func (f *failOnce) SaveReceipt(ctx context.Context, receipt models.ReceiptRecord, items []models.PantryItem) error {
	f.calls++
	if f.calls == 1 {
		return errors.New("connection reset")
	}
	return f.store.SaveReceipt(ctx, receipt, items)
}

func intPtr(v int) *int { return &v }

func sampleReceipt() models.ExtractedReceipt {
	return models.ExtractedReceipt{
		Store: "Corner Market",
		Date:  models.NewDate(2024, time.January, 1).Ptr(),
		Items: []models.Item{
			{ID: "milk", Name: "Milk", Category: "Dairy", IsPerishable: true, ExpiryDays: intPtr(3)},
			{ID: "soap", Name: "Soap", Category: "Household", IsPerishable: true},
			{ID: "salmon", Name: "Salmon", Category: "Seafood", IsPerishable: true},
		},
	}
}

func newTestManager(t *testing.T, ex Extractor, est ShelfLifeEstimator) (*Manager, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	m := NewManager(ex, est, store, nil, time.UTC, nil)
	m.now = func() time.Time { return time.Date(2024, time.March, 1, 15, 0, 0, 0, time.UTC) }
	return m, store
}

func itemByID(t *testing.T, view models.DraftView, id string) models.Item {
	t.Helper()
	for _, item := range view.Receipt.Items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("item %s not in draft", id)
	return models.Item{}
}

func TestUploadClassifiesItems(t *testing.T) {
	ex := &fakeExtractor{receipt: sampleReceipt()}
	m, _ := newTestManager(t, ex, nil)

	view, err := m.Upload(context.Background(), "u1", pngImage)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if ex.mediaType != "image/png" {
		t.Errorf("media type = %q", ex.mediaType)
	}

	state := m.State("u1")
	if state.Status != models.UploadSuccess || state.ItemCount != 3 {
		t.Fatalf("state = %+v", state)
	}
	if state.Message != "Receipt processed! 3 items identified with expiry dates." {
		t.Errorf("message = %q", state.Message)
	}

	if milk := itemByID(t, view, "milk"); milk.ExpiryDate.String() != "2024-01-04" {
		t.Errorf("milk expiry = %s", milk.ExpiryDate)
	}
	if soap := itemByID(t, view, "soap"); soap.IsPerishable || soap.ExpiryDays != nil {
		t.Errorf("soap = %+v", soap)
	}
	if salmon := itemByID(t, view, "salmon"); *salmon.ExpiryDays != 2 {
		t.Errorf("salmon days = %d", *salmon.ExpiryDays)
	}
	if view.Labels["soap"] != "non-perishable" {
		t.Errorf("soap label = %q", view.Labels["soap"])
	}
}

func TestUploadWithoutDateUsesToday(t *testing.T) {
	m, _ := newTestManager(t, anthropic.MockClient{}, nil)

	view, err := m.Upload(context.Background(), "u1", pngImage)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if view.Receipt.PurchaseDate.String() != "2024-03-01" {
		t.Fatalf("purchase date = %s", view.Receipt.PurchaseDate)
	}
	if len(view.Receipt.Items) != 6 {
		t.Fatalf("items = %d", len(view.Receipt.Items))
	}
	if m.State("u1").Message != "Receipt processed! 6 items identified with expiry dates." {
		t.Fatalf("message = %q", m.State("u1").Message)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	ex := &fakeExtractor{receipt: sampleReceipt()}
	m, _ := newTestManager(t, ex, nil)

	if _, err := m.Upload(context.Background(), "u1", []byte("just some text, not a picture")); !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
	if _, err := m.Upload(context.Background(), "u1", nil); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if state := m.State("u1"); state.Status != models.UploadIdle {
		t.Fatalf("state changed on invalid input: %+v", state)
	}
	if _, err := m.Draft("u1"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected no draft, got %v", err)
	}
}

func TestUploadFailureKeepsPreviousDraft(t *testing.T) {
	ex := &fakeExtractor{receipt: sampleReceipt()}
	m, _ := newTestManager(t, ex, nil)
	if _, err := m.Upload(context.Background(), "u1", pngImage); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	ex.err = errors.New("model overloaded")
	if _, err := m.Upload(context.Background(), "u1", pngImage); !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	state := m.State("u1")
	if state.Status != models.UploadError || state.Message != "Error processing receipt: model overloaded" {
		t.Fatalf("state = %+v", state)
	}
	if view, err := m.Draft("u1"); err != nil || len(view.Receipt.Items) != 3 {
		t.Fatalf("previous draft lost: %v", err)
	}
}

func TestUpdateDraftRecalculates(t *testing.T) {
	m, _ := newTestManager(t, &fakeExtractor{receipt: sampleReceipt()}, nil)
	if _, err := m.Upload(context.Background(), "u1", pngImage); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := m.BeginEdit("u1", "salmon"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}

	date := "2024-01-10"
	store := "  Fresh Mart "
	view, err := m.UpdateDraft("u1", models.DraftUpdateRequest{Store: &store, PurchaseDate: &date})
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if view.Receipt.Store != "Fresh Mart" {
		t.Errorf("store = %q", view.Receipt.Store)
	}
	milk := itemByID(t, view, "milk")
	if milk.ExpiryDate.String() != "2024-01-13" || *milk.ExpiryDays != 3 {
		t.Errorf("milk = %s / %d", milk.ExpiryDate, *milk.ExpiryDays)
	}
	if got := view.Editing["salmon"].ExpiryDate.String(); got != "2024-01-12" {
		t.Errorf("open edit not rebased: %s", got)
	}

	bad := "10/01/2024"
	if _, err := m.UpdateDraft("u1", models.DraftUpdateRequest{PurchaseDate: &bad}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestEditSaveCancel(t *testing.T) {
	m, _ := newTestManager(t, &fakeExtractor{receipt: sampleReceipt()}, nil)
	if _, err := m.Upload(context.Background(), "u1", pngImage); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	raw := models.NumericInput("abc")
	if _, err := m.UpdateEdit("u1", "milk", models.ItemPatch{ExpiryDays: &raw}); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing, got %v", err)
	}

	if _, err := m.BeginEdit("u1", "milk"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	view, err := m.UpdateEdit("u1", "milk", models.ItemPatch{ExpiryDays: &raw})
	if err != nil {
		t.Fatalf("UpdateEdit: %v", err)
	}
	if e := view.Editing["milk"]; e.ExpiryDays != nil || e.ExpiryDate != nil {
		t.Fatalf("malformed days should give unknown expiry, got %+v", e)
	}
	if committed := itemByID(t, view, "milk"); *committed.ExpiryDays != 3 {
		t.Fatalf("committed item changed before save")
	}

	view, err = m.CancelEdit("u1", "milk")
	if err != nil {
		t.Fatalf("CancelEdit: %v", err)
	}
	if len(view.Editing) != 0 || view.Labels["milk"] != "expires 2024-01-04 (3 days)" {
		t.Fatalf("cancel did not restore: %+v", view)
	}

	if _, err := m.BeginEdit("u1", "milk"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	name := "Oat Milk"
	date := "2024-01-15"
	if _, err := m.UpdateEdit("u1", "milk", models.ItemPatch{Name: &name, ExpiryDate: &date}); err != nil {
		t.Fatalf("UpdateEdit: %v", err)
	}
	view, err = m.SaveEdit("u1", "milk")
	if err != nil {
		t.Fatalf("SaveEdit: %v", err)
	}
	milk := itemByID(t, view, "milk")
	if milk.Name != "Oat Milk" || *milk.ExpiryDays != 14 {
		t.Fatalf("saved milk = %+v", milk)
	}
	if _, err := m.SaveEdit("u1", "milk"); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing on second save, got %v", err)
	}
}

func TestPerishableToggle(t *testing.T) {
	m, _ := newTestManager(t, &fakeExtractor{receipt: sampleReceipt()}, nil)
	if _, err := m.Upload(context.Background(), "u1", pngImage); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := m.BeginEdit("u1", "milk"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}

	off := false
	view, _ := m.UpdateEdit("u1", "milk", models.ItemPatch{IsPerishable: &off})
	if e := view.Editing["milk"]; e.IsPerishable || e.ExpiryDays != nil || e.ExpiryDate != nil {
		t.Fatalf("non-perishable edit = %+v", e)
	}

	on := true
	view, _ = m.UpdateEdit("u1", "milk", models.ItemPatch{IsPerishable: &on})
	if e := view.Editing["milk"]; *e.ExpiryDays != 7 || e.ExpiryDate.String() != "2024-01-08" {
		t.Fatalf("perishable again = %+v", e)
	}
}

func TestDeleteItem(t *testing.T) {
	m, _ := newTestManager(t, &fakeExtractor{receipt: sampleReceipt()}, nil)
	if _, err := m.Upload(context.Background(), "u1", pngImage); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := m.BeginEdit("u1", "soap"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	view, err := m.DeleteItem("u1", "soap")
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if len(view.Receipt.Items) != 2 || len(view.Editing) != 0 {
		t.Fatalf("view = %+v", view)
	}
	if _, err := m.DeleteItem("u1", "soap"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestEstimateItem(t *testing.T) {
	est := &fakeEstimator{days: 10}
	m, _ := newTestManager(t, &fakeExtractor{receipt: sampleReceipt()}, est)
	if _, err := m.Upload(context.Background(), "u1", pngImage); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	view, err := m.EstimateItem(context.Background(), "u1", "soap")
	if err != nil {
		t.Fatalf("EstimateItem: %v", err)
	}
	soap := itemByID(t, view, "soap")
	if !soap.IsPerishable || *soap.ExpiryDays != 10 || soap.ExpiryDate.String() != "2024-01-11" {
		t.Fatalf("soap = %+v", soap)
	}
	if len(est.seen) != 1 || est.seen[0] != "Soap" {
		t.Fatalf("estimator saw %v", est.seen)
	}

	est.err = errors.New("timeout")
	if _, err := m.EstimateItem(context.Background(), "u1", "milk"); err == nil {
		t.Fatal("expected estimator error")
	}
}

func TestAddItemAndConfirm(t *testing.T) {
	m, store := newTestManager(t, nil, nil)

	view, item, err := m.AddItem("u1")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if view.Receipt.PurchaseDate.String() != "2024-03-01" || !item.IsPerishable {
		t.Fatalf("manual draft = %+v", view.Receipt)
	}

	if _, err := m.Confirm(context.Background(), "u1"); !errors.Is(err, ErrEditsPending) {
		t.Fatalf("expected ErrEditsPending, got %v", err)
	}
	if _, err := m.CancelEdit("u1", item.ID); err != nil {
		t.Fatalf("CancelEdit: %v", err)
	}
	if _, err := m.Confirm(context.Background(), "u1"); !errors.Is(err, ErrUnnamedItem) {
		t.Fatalf("expected ErrUnnamedItem, got %v", err)
	}

	if _, err := m.BeginEdit("u1", item.ID); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	name := "Yogurt"
	days := models.NumericInput("5")
	if _, err := m.UpdateEdit("u1", item.ID, models.ItemPatch{Name: &name, ExpiryDays: &days}); err != nil {
		t.Fatalf("UpdateEdit: %v", err)
	}
	if _, err := m.SaveEdit("u1", item.ID); err != nil {
		t.Fatalf("SaveEdit: %v", err)
	}

	record, err := m.Confirm(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if record.ItemCount != 1 {
		t.Fatalf("record = %+v", record)
	}

	stored, err := store.ListItems(context.Background(), "u1", models.StatusActive)
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored items = %+v, %v", stored, err)
	}
	if stored[0].ExpiryDate.String() != "2024-03-06" || stored[0].ReceiptID != record.ID {
		t.Fatalf("stored item = %+v", stored[0])
	}

	if _, err := m.Draft("u1"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("draft should be cleared, got %v", err)
	}
	if m.State("u1").Status != models.UploadIdle {
		t.Fatalf("state should reset to idle")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	m, _ := newTestManager(t, &fakeExtractor{receipt: sampleReceipt()}, nil)
	if _, err := m.Upload(context.Background(), "u1", pngImage); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := m.Draft("u2"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("u2 sees u1's draft: %v", err)
	}
	if _, err := m.BeginEdit("u2", "milk"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
	m.Discard("u1")
	if _, err := m.Draft("u1"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("Discard kept the draft: %v", err)
	}
}

func TestUploadRecoversFromExtractorPanic(t *testing.T) {
	ex := &panicOnce{fakeExtractor: fakeExtractor{receipt: sampleReceipt()}}
	m, _ := newTestManager(t, ex, nil)

	if _, err := m.Upload(context.Background(), "u1", pngImage); !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	state := m.State("u1")
	if state.Status != models.UploadError || !strings.HasPrefix(state.Message, "Error processing receipt: ") {
		t.Fatalf("state = %+v", state)
	}

	if _, err := m.Upload(context.Background(), "u1", pngImage); err != nil {
		t.Fatalf("Upload after panic: %v", err)
	}
	if m.State("u1").Status != models.UploadSuccess {
		t.Fatalf("state = %+v", m.State("u1"))
	}
}

func TestConfirmCanBeRetriedAfterSaveFailure(t *testing.T) {
	store := memory.NewStore()
	saver := &failOnce{store: store}
	m := NewManager(&fakeExtractor{receipt: sampleReceipt()}, nil, saver, nil, time.UTC, nil)

	if _, err := m.Upload(context.Background(), "u1", pngImage); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := m.Confirm(context.Background(), "u1"); err == nil {
		t.Fatal("expected the first confirm to fail")
	}
	if _, err := m.Draft("u1"); err != nil {
		t.Fatalf("draft should survive a failed confirm: %v", err)
	}

	record, err := m.Confirm(context.Background(), "u1")
	if err != nil {
		t.Fatalf("retried Confirm: %v", err)
	}
	stored, err := store.ListItems(context.Background(), "u1", "")
	if err != nil || len(stored) != record.ItemCount || record.ItemCount != 3 {
		t.Fatalf("stored %d items for record %+v, err %v", len(stored), record, err)
	}
}
