package field

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrReservedName rejects writes that use the reserved field name. It is a
// user-facing validation failure, not an internal error.
var ErrReservedName = errors.New(`name "` + ReservedName + `" is reserved and cannot be used`)

// ValidationError marks recoverable, user-facing write rejections so the
// HTTP layer can map them to 400 instead of 500.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// LifecycleStore is the slice of the record store the lifecycle manager
// needs before a field write.
type LifecycleStore interface {
	// FieldNameExists checks name uniqueness across all forms.
	FieldNameExists(ctx context.Context, name string) (bool, error)
	// MaxSortForForm returns the highest Sort among a form's fields,
	// zero when the form has none.
	MaxSortForForm(ctx context.Context, formID uuid.UUID) (int, error)
}

// Lifecycle assigns defaults and validates a field before every write.
type Lifecycle struct {
	store LifecycleStore

	// allowedClasses, when non-empty, restricts ExtraClass values. Passed
	// in from configuration rather than held as process-global state.
	allowedClasses map[string]bool

	// randUint32 is swappable so tests can force name collisions.
	randUint32 func() uint32
}

// NewLifecycle creates a Lifecycle over the given store. allowedClasses may
// be nil to allow any extra CSS class.
func NewLifecycle(store LifecycleStore, allowedClasses []string) *Lifecycle {
	allowed := make(map[string]bool, len(allowedClasses))
	for _, c := range allowedClasses {
		allowed[c] = true
	}
	return &Lifecycle{
		store:          store,
		allowedClasses: allowed,
		randUint32:     secureRandUint32,
	}
}

// SetRandSource overrides the random source used for name generation.
func (l *Lifecycle) SetRandSource(fn func() uint32) {
	l.randUint32 = fn
}

// BeforeWrite populates Name and Sort when unset and enforces the write
// invariants. It mutates f in place and must run before every persistence.
func (l *Lifecycle) BeforeWrite(ctx context.Context, f *EditableField) error {
	if !KnownKind(f.Kind) {
		return &ValidationError{Msg: fmt.Sprintf("unknown field kind %q", f.Kind)}
	}
	if f.Role == "" {
		f.Role = RoleForKind(f.Kind)
	}

	if f.Name == "" {
		name, err := l.generateName(ctx, f.Kind)
		if err != nil {
			return err
		}
		f.Name = name
	}
	if f.Name == ReservedName {
		return &ValidationError{Msg: ErrReservedName.Error()}
	}

	if err := l.checkExtraClass(f.ExtraClass); err != nil {
		return err
	}

	if f.Sort == 0 && f.FormID != uuid.Nil {
		max, err := l.store.MaxSortForForm(ctx, f.FormID)
		if err != nil {
			return fmt.Errorf("resolving sort for form %s: %w", f.FormID, err)
		}
		f.Sort = max + 1
	}
	return nil
}

// generateName combines the field kind with 5 hex characters and retries
// until the name is globally unused.
func (l *Lifecycle) generateName(ctx context.Context, kind string) (string, error) {
	for {
		name := fmt.Sprintf("%s%05x", kind, l.randUint32()&0xfffff)
		exists, err := l.store.FieldNameExists(ctx, name)
		if err != nil {
			return "", fmt.Errorf("checking name %q: %w", name, err)
		}
		if !exists {
			return name, nil
		}
	}
}

func (l *Lifecycle) checkExtraClass(extraClass string) error {
	if len(l.allowedClasses) == 0 || extraClass == "" {
		return nil
	}
	for _, c := range strings.Fields(extraClass) {
		if !l.allowedClasses[c] {
			return &ValidationError{Msg: fmt.Sprintf("extra class %q is not in the allowed set", c)}
		}
	}
	return nil
}

func secureRandUint32() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the platform entropy source is broken.
		panic(fmt.Sprintf("field: reading random source: %v", err))
	}
	return binary.BigEndian.Uint32(b[:])
}
