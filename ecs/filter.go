package ecs

type filterKind uint8

const (
	filterWith filterKind = iota
	filterWithout
	filterChanged
	filterAdded
)

// queryFilter is implemented by the zero sized marker types that can be used as query fields.
type queryFilter interface {
	queryFilter() (filterKind, ComponentId)
}

// With requires the component C without accessing it.
type With[C any] struct{}

func (With[C]) queryFilter() (filterKind, ComponentId) {
	return filterWith, ComponentIdOf[C]()
}

// Without excludes entities having the component C.
type Without[C any] struct{}

func (Without[C]) queryFilter() (filterKind, ComponentId) {
	return filterWithout, ComponentIdOf[C]()
}

// Changed requires the component C to have been written since the
// last run of the system owning the query.
type Changed[C any] struct{}

func (Changed[C]) queryFilter() (filterKind, ComponentId) {
	return filterChanged, ComponentIdOf[C]()
}

// Added requires the component C to have been inserted since the
// last run of the system owning the query.
type Added[C any] struct{}

func (Added[C]) queryFilter() (filterKind, ComponentId) {
	return filterAdded, ComponentIdOf[C]()
}
