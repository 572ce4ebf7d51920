package vm

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sorane/javelin/pkg/classfile"
)

// NotFoundError reports that no source could supply bytes for a class.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("class %s not found", e.Name)
}

// FormatError reports that class bytes could not be parsed or linked.
type FormatError struct {
	Name string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("class %s is malformed: %v", e.Name, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// VersionError reports a class file version outside the supported range.
type VersionError struct {
	Major uint16
	Minor uint16
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported class file version %d.%d", e.Major, e.Minor)
}

// NameMismatchError reports that a class file declares a different name than
// the one it was loaded under.
type NameMismatchError struct {
	Requested string
	Declared  string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("class %s declares name %s", e.Requested, e.Declared)
}

// IncompatibleClassError reports a class used where an interface was
// required, or the other way around.
type IncompatibleClassError struct {
	Name string
	// Interface is true when Name was expected to be an interface but is a
	// class, false when it was expected to be a class but is an interface.
	Interface bool
}

func (e *IncompatibleClassError) Error() string {
	if e.Interface {
		return fmt.Sprintf("class %s is not an interface", e.Name)
	}
	return fmt.Sprintf("interface %s used as a class", e.Name)
}

// CircularityError reports a class that is a direct or indirect supertype of
// itself.
type CircularityError struct {
	Handle ClassHandle
}

func (e *CircularityError) Error() string {
	return fmt.Sprintf("circular supertype chain through %s", e.Handle)
}

const objectClassName = "java/lang/Object"

// Supported class file major versions, JDK 1.1 through 17.
const (
	minSupportedMajor = 45
	maxSupportedMajor = 61
)

// ClassLoader resolves class handles into linked classes. Loaded classes are
// cached; failed loads are not, so a later attempt can succeed after the
// underlying source changes.
type ClassLoader struct {
	source ByteSource
	log    *zap.Logger

	mu      sync.Mutex
	classes map[ClassHandle]*Class
	pending map[ClassHandle]struct{}
}

// NewClassLoader builds a loader over a byte source. A nil logger disables
// logging.
func NewClassLoader(source ByteSource, log *zap.Logger) *ClassLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClassLoader{
		source:  source,
		log:     log,
		classes: make(map[ClassHandle]*Class),
		pending: make(map[ClassHandle]struct{}),
	}
}

// Resolve returns the loaded class for a handle, loading and linking it (and
// its supertypes) if necessary. Resolving the same handle again returns the
// cached class without consulting the source.
func (l *ClassLoader) Resolve(handle ClassHandle) (*Class, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolve(handle)
}

func (l *ClassLoader) resolve(handle ClassHandle) (*Class, error) {
	if c, ok := l.classes[handle]; ok {
		return c, nil
	}
	if _, ok := l.pending[handle]; ok {
		return nil, &CircularityError{Handle: handle}
	}
	l.pending[handle] = struct{}{}
	defer delete(l.pending, handle)

	var (
		c   *Class
		err error
	)
	if handle.IsArray() {
		c, err = l.resolveArray(handle)
	} else {
		c, err = l.resolveScalar(handle)
	}
	if err != nil {
		return nil, err
	}
	l.classes[handle] = c
	l.log.Debug("resolved class", zap.Stringer("class", handle))
	return c, nil
}

func (l *ClassLoader) resolveScalar(handle ClassHandle) (*Class, error) {
	name := handle.Name()
	data, err := l.source.ClassBytes(name)
	if err != nil {
		return nil, err
	}

	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, &FormatError{Name: name, Err: err}
	}
	if cf.MajorVersion < minSupportedMajor || cf.MajorVersion > maxSupportedMajor {
		return nil, &VersionError{Major: cf.MajorVersion, Minor: cf.MinorVersion}
	}
	declared, err := cf.ClassName()
	if err != nil {
		return nil, &FormatError{Name: name, Err: err}
	}
	if declared != name {
		return nil, &NameMismatchError{Requested: name, Declared: declared}
	}

	var super *Class
	if cf.SuperClass == 0 {
		if name != objectClassName {
			return nil, &FormatError{Name: name, Err: fmt.Errorf("missing superclass")}
		}
	} else {
		superName := cf.SuperClassName()
		super, err = l.resolve(ScalarHandle(superName))
		if err != nil {
			return nil, fmt.Errorf("superclass of %s: %w", name, err)
		}
		if super.IsInterface() {
			return nil, &IncompatibleClassError{Name: superName}
		}
	}

	interfaces := make([]*Class, 0, len(cf.Interfaces))
	for _, idx := range cf.Interfaces {
		ifaceName, err := cf.ConstantPool.ClassName(idx)
		if err != nil {
			return nil, &FormatError{Name: name, Err: err}
		}
		iface, err := l.resolve(ScalarHandle(ifaceName))
		if err != nil {
			return nil, fmt.Errorf("superinterface of %s: %w", name, err)
		}
		if !iface.IsInterface() {
			return nil, &IncompatibleClassError{Name: ifaceName, Interface: true}
		}
		interfaces = append(interfaces, iface)
	}

	pool, err := NewRuntimeConstantPool(cf.ConstantPool)
	if err != nil {
		return nil, &FormatError{Name: name, Err: err}
	}
	c, err := newClass(ClassRef{Handle: handle}, cf, super, interfaces, pool)
	if err != nil {
		return nil, &FormatError{Name: name, Err: err}
	}
	return c, nil
}

func (l *ClassLoader) resolveArray(handle ClassHandle) (*Class, error) {
	elem, err := handle.Element()
	if err != nil {
		return nil, &FormatError{Name: handle.Name(), Err: err}
	}
	// element classes load first so an unloadable element fails the array
	switch elem.Kind {
	case KindReference, KindArray:
		elemHandle, err := HandleForType(elem)
		if err != nil {
			return nil, &FormatError{Name: handle.Name(), Err: err}
		}
		if _, err := l.resolve(elemHandle); err != nil {
			return nil, fmt.Errorf("element class of %s: %w", handle, err)
		}
	}
	object, err := l.resolve(ScalarHandle(objectClassName))
	if err != nil {
		return nil, fmt.Errorf("superclass of %s: %w", handle, err)
	}
	return newArrayClass(handle, object), nil
}
