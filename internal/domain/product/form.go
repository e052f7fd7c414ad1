package product

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/infrastructure/store"
	"go.uber.org/zap"
)

type Operation string

const (
	OperationNone   Operation = ""
	OperationAdd    Operation = "add"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// NeedsID reports whether the operation targets an existing product.
func (o Operation) NeedsID() bool {
	return o == OperationUpdate || o == OperationDelete
}

// ParseOperation accepts "", "add", "update" and "delete".
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OperationNone, OperationAdd, OperationUpdate, OperationDelete:
		return op, nil
	}
	return OperationNone, fmt.Errorf("%w: %q", ErrInvalidOperation, s)
}

type State string

const (
	StateIdle              State = "idle"
	StateOperationSelected State = "operationSelected"
	StateAwaitingID        State = "awaitingId"
	StateHydrated          State = "hydrated"
	StateSubmitting        State = "submitting"
)

const (
	MessageAdded   = "Product added successfully!"
	MessageDeleted = "Product deleted successfully!"
	MessageUpdated = "Product updated successfully!"
	MessageFailed  = "An error occurred. Please try again."

	DefaultDismissAfter = 5 * time.Second
)

var (
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNoOperation      = errors.New("no operation selected")
	ErrMissingProductID = errors.New("product id is required for update and delete")
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrSubmitFailed     = errors.New(MessageFailed)
)

// CatalogClient is the part of the remote catalog the form talks to.
type CatalogClient interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	AddProduct(ctx context.Context, body any) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, body any) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// Snapshot is a point-in-time copy of the form, safe to serialize.
type Snapshot struct {
	Operation     Operation `json:"operation"`
	State         State     `json:"state"`
	ProductID     string    `json:"productId"`
	Draft         Draft     `json:"draft"`
	UpdatedFields []string  `json:"updatedFields"`
	Alert         string    `json:"alert,omitempty"`
}

// Form is one admin's product management form.
//
// Remote calls run without holding mu. Every hydration trigger bumps hydrateGen and a fetched
// record is applied only while its generation is still current, so the last request wins.
type Form struct {
	id     string
	client CatalogClient
	events store.EventStoreInterface
	logger *zap.Logger

	clock        Clock
	dismissAfter time.Duration

	mu            sync.Mutex
	operation     Operation
	state         State
	productID     string
	draft         Draft
	updatedFields []string
	alert         string

	hydrateGen   uint64
	alertGen     uint64
	dismissTimer Timer
	stateBefore  State
}

type FormOption func(*Form)

func WithClock(c Clock) FormOption {
	return func(f *Form) { f.clock = c }
}

func WithDismissAfter(d time.Duration) FormOption {
	return func(f *Form) {
		if d > 0 {
			f.dismissAfter = d
		}
	}
}

// NewForm creates an idle form with an empty draft. events may be nil.
func NewForm(id string, client CatalogClient, events store.EventStoreInterface, logger *zap.Logger, opts ...FormOption) *Form {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Form{
		id:           id,
		client:       client,
		events:       events,
		logger:       logger.Named("product_form").With(zap.String("form_id", id)),
		clock:        systemClock{},
		dismissAfter: DefaultDismissAfter,
		state:        StateIdle,
		draft:        EmptyDraft(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetFormID returns the form id for an admin session
func GetFormID(sessionID string) string {
	return "form-" + sessionID
}

func (f *Form) ID() string { return f.id }

// SelectOperation switches the form to op. Choosing update or delete while an id is already
// set fetches that product into the draft.
func (f *Form) SelectOperation(ctx context.Context, op Operation) (Snapshot, error) {
	op, err := ParseOperation(string(op))
	if err != nil {
		return f.Snapshot(), err
	}

	f.mu.Lock()
	f.operation = op
	gen, id, hydrate := f.retargetLocked()
	f.mu.Unlock()

	if hydrate {
		f.hydrate(ctx, gen, id)
	}
	return f.Snapshot(), nil
}

// SetProductID stores the target id. With update or delete selected, a non-empty id fetches
// that product into the draft.
func (f *Form) SetProductID(ctx context.Context, id string) Snapshot {
	f.mu.Lock()
	f.productID = strings.TrimSpace(id)
	gen, target, hydrate := f.retargetLocked()
	f.mu.Unlock()

	if hydrate {
		f.hydrate(ctx, gen, target)
	}
	return f.Snapshot()
}

// retargetLocked recomputes the state after the operation or id changed and starts a new
// hydration generation when a fetch is due. Any fetch still in flight becomes stale.
func (f *Form) retargetLocked() (uint64, string, bool) {
	f.hydrateGen++
	if f.state == StateSubmitting {
		return f.hydrateGen, "", false
	}

	switch {
	case f.operation == OperationNone:
		f.state = StateIdle
	case !f.operation.NeedsID():
		f.state = StateOperationSelected
	default:
		f.state = StateAwaitingID
		if f.productID != "" {
			return f.hydrateGen, f.productID, true
		}
	}
	return f.hydrateGen, "", false
}

func (f *Form) hydrate(ctx context.Context, gen uint64, id string) {
	p, err := f.client.GetProduct(ctx, id)
	if err != nil {
		f.logger.Warn("failed to fetch product details", zap.String("product_id", id), zap.Error(err))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.hydrateGen || f.state == StateSubmitting {
		f.logger.Debug("dropping stale product details", zap.String("product_id", id), zap.Uint64("generation", gen))
		return
	}
	f.draft = DraftFromProduct(p)
	f.state = StateHydrated
}

// SetField edits one draft field and records its name in the updated-fields list.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.draft.set(name, value); err != nil {
		return err
	}
	f.trackLocked(name)
	return nil
}

// SetFields applies several edits in field-name order. Nothing is applied if any edit fails.
func (f *Form) SetFields(fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.draft.clone()
	for _, name := range names {
		if err := next.set(name, fields[name]); err != nil {
			return err
		}
	}
	f.draft = next
	for _, name := range names {
		f.trackLocked(name)
	}
	return nil
}

func (f *Form) trackLocked(name string) {
	for _, tracked := range f.updatedFields {
		if tracked == name {
			return
		}
	}
	f.updatedFields = append(f.updatedFields, name)
}

// Submit sends the draft to the remote catalog according to the selected operation.
// On success the draft, id and updated fields are reset and a dismissable alert is shown.
// On failure the draft is kept, the generic alert is shown and ErrSubmitFailed is returned.
func (f *Form) Submit(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	switch {
	case f.state == StateSubmitting:
		f.mu.Unlock()
		return f.Snapshot(), ErrSubmitInProgress
	case f.operation == OperationNone:
		f.mu.Unlock()
		return f.Snapshot(), ErrNoOperation
	case f.operation.NeedsID() && f.productID == "":
		f.mu.Unlock()
		return f.Snapshot(), ErrMissingProductID
	}
	op := f.operation
	id := f.productID
	draft := f.draft.clone()
	fields := append([]string(nil), f.updatedFields...)
	f.stateBefore = f.state
	f.state = StateSubmitting
	f.hydrateGen++
	f.mu.Unlock()

	err := f.send(ctx, op, id, draft)

	f.record(ctx, ProductSubmitted{
		FormID:        f.id,
		Operation:     op,
		ProductID:     id,
		Title:         draft.Title,
		UpdatedFields: fields,
		OK:            err == nil,
		SubmittedAt:   time.Now(),
	})

	f.mu.Lock()
	if err != nil {
		f.state = f.stateBefore
		f.showAlertLocked(MessageFailed, false)
		f.mu.Unlock()
		f.logger.Error("product submission failed",
			zap.String("operation", string(op)),
			zap.String("product_id", id),
			zap.Error(err),
		)
		return f.Snapshot(), ErrSubmitFailed
	}

	f.draft = EmptyDraft()
	f.productID = ""
	f.updatedFields = nil
	f.state = StateIdle
	f.hydrateGen++
	f.showAlertLocked(successMessage(op, fields), true)
	f.mu.Unlock()

	f.logger.Info("product submitted", zap.String("operation", string(op)), zap.String("product_id", id))
	return f.Snapshot(), nil
}

func (f *Form) send(ctx context.Context, op Operation, id string, draft Draft) error {
	var err error
	switch op {
	case OperationAdd:
		_, err = f.client.AddProduct(ctx, draft)
	case OperationUpdate:
		_, err = f.client.UpdateProduct(ctx, id, draft)
	case OperationDelete:
		_, err = f.client.DeleteProduct(ctx, id)
	default:
		err = fmt.Errorf("%w: %q", ErrInvalidOperation, op)
	}
	return err
}

func successMessage(op Operation, fields []string) string {
	switch op {
	case OperationAdd:
		return MessageAdded
	case OperationDelete:
		return MessageDeleted
	}
	if len(fields) == 0 {
		return MessageUpdated
	}
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + " updated"
	}
	return "Product " + strings.Join(parts, ", ") + " successfully!"
}

// showAlertLocked replaces the alert and cancels any pending dismissal. Only success alerts
// are dismissed automatically.
func (f *Form) showAlertLocked(message string, dismiss bool) {
	f.alert = message
	f.alertGen++
	if f.dismissTimer != nil {
		f.dismissTimer.Stop()
		f.dismissTimer = nil
	}
	if !dismiss {
		return
	}

	gen := f.alertGen
	f.dismissTimer = f.clock.AfterFunc(f.dismissAfter, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.alertGen == gen {
			f.alert = ""
			f.dismissTimer = nil
		}
	})
}

// DismissAlert clears the alert immediately.
func (f *Form) DismissAlert() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alert = ""
	f.alertGen++
	if f.dismissTimer != nil {
		f.dismissTimer.Stop()
		f.dismissTimer = nil
	}
}

func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Operation:     f.operation,
		State:         f.state,
		ProductID:     f.productID,
		Draft:         f.draft.clone(),
		UpdatedFields: append([]string{}, f.updatedFields...),
		Alert:         f.alert,
	}
}

func (f *Form) record(ctx context.Context, event ProductSubmitted) {
	if f.events == nil {
		return
	}
	aggregateID := event.ProductID
	if aggregateID == "" {
		aggregateID = f.id
	}
	if _, err := f.events.Append(ctx, aggregateID, AggregateType, EventProductSubmitted, event); err != nil {
		f.logger.Warn("failed to record product submission", zap.Error(err))
	}
}
