package ecs

import (
	"fmt"
	"reflect"
	"sync"
)

// System represents a behavior that operates on entities with specific components.
// User-defined systems should implement this interface and can include Query, Res,
// EventReader and EventWriter fields, as well as custom state fields that persist between frames.
type System interface {
	Execute(frame *UpdateFrame)
}

// SystemInitializer is implemented by systems that need to prepare state once
// they are added to a world.
type SystemInitializer interface {
	Init(w *World)
}

// SystemDependencies is implemented by systems that declare ordering constraints.
type SystemDependencies interface {
	Dependencies() []Dependency
}

// SystemNamer overrides the name derived from the system type.
type SystemNamer interface {
	SystemName() string
}

type dependencyKind uint8

const (
	dependencyBefore dependencyKind = iota
	dependencyAfter
	dependencyAfterAll
)

// Dependency is a before/after relation between the declaring system and a target system.
type Dependency struct {
	kind   dependencyKind
	target string
}

// Target returns the name of the referenced system.
func (d Dependency) Target() string {
	return d.target
}

func (d Dependency) String() string {
	switch d.kind {
	case dependencyBefore:
		return "before(" + d.target + ")"
	case dependencyAfter:
		return "after(" + d.target + ")"
	default:
		return "afterAll"
	}
}

// Before declares that the system runs before the system of type S.
func Before[S System]() Dependency {
	return Dependency{kind: dependencyBefore, target: systemTypeName(reflect.TypeFor[S]())}
}

// After declares that the system runs after the system of type S.
func After[S System]() Dependency {
	return Dependency{kind: dependencyAfter, target: systemTypeName(reflect.TypeFor[S]())}
}

// BeforeName declares that the system runs before the system with the given name.
func BeforeName(name string) Dependency {
	return Dependency{kind: dependencyBefore, target: name}
}

// AfterName declares that the system runs after the system with the given name.
func AfterName(name string) Dependency {
	return Dependency{kind: dependencyAfter, target: name}
}

// AfterAll declares that the system runs after every other system of its stage that
// does not itself declare AfterAll.
func AfterAll() Dependency {
	return Dependency{kind: dependencyAfterAll}
}

// systemNames memoizes the name of every system type seen so far.
var systemNames struct {
	mu     sync.Mutex
	byType map[reflect.Type]string
}

// SystemName returns the stable name of the given system.
func SystemName(system System) string {
	if namer, ok := system.(SystemNamer); ok {
		return namer.SystemName()
	}

	return systemTypeName(reflect.TypeOf(system))
}

func systemTypeName(t reflect.Type) string {
	systemNames.mu.Lock()
	defer systemNames.mu.Unlock()

	if name, ok := systemNames.byType[t]; ok {
		return name
	}

	elem := t
	for elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}

	name := elem.Name()
	if name == "" {
		name = elem.String()
	}

	if pkg := elem.PkgPath(); pkg != "" {
		name = pkg + "." + name
	}

	if systemNames.byType == nil {
		systemNames.byType = make(map[reflect.Type]string)
	}

	systemNames.byType[t] = name
	return name
}

// FuncSystem adapts a function to the System interface.
type FuncSystem struct {
	name string
	fn   func(frame *UpdateFrame)
	deps []Dependency
}

// NewFuncSystem creates a named system running fn.
func NewFuncSystem(name string, fn func(frame *UpdateFrame), deps ...Dependency) *FuncSystem {
	if name == "" {
		panic("ecs: function system without name")
	}

	return &FuncSystem{name: name, fn: fn, deps: deps}
}

func (s *FuncSystem) Execute(frame *UpdateFrame) {
	s.fn(frame)
}

func (s *FuncSystem) SystemName() string {
	return s.name
}

func (s *FuncSystem) Dependencies() []Dependency {
	return s.deps
}

// systemDependencies returns the dependencies declared by the system.
func systemDependencies(system System) []Dependency {
	deps, ok := system.(SystemDependencies)
	if !ok {
		return nil
	}

	return deps.Dependencies()
}

// fieldInitializer is implemented by the pointer to every system field type
// that is bound to a world when the system is added.
type fieldInitializer interface {
	Init(w *World)
}

// initializeFields binds Query, Res, EventReader and EventWriter fields of a
// struct system to the world.
func initializeFields(w *World, system System) {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() != reflect.Pointer {
		return
	}

	systemValue = systemValue.Elem()
	if systemValue.Kind() != reflect.Struct {
		return
	}

	systemType := systemValue.Type()

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		fieldType := systemType.Field(i)

		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		if !isSystemParam(field.Type()) {
			continue
		}

		init, ok := field.Addr().Interface().(fieldInitializer)
		if !ok {
			panic(fmt.Sprintf("ecs: Init method not found on field %s of %s", fieldType.Name, systemType))
		}

		init.Init(w)
	}
}

func isSystemParam(t reflect.Type) bool {
	if t.PkgPath() != reflect.TypeFor[World]().PkgPath() {
		return false
	}

	return reflect.PointerTo(t).Implements(reflect.TypeFor[systemParam]())
}

// systemParam marks the types that initializeFields binds.
type systemParam interface {
	fieldInitializer
	isSystemParam()
}
