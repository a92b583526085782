package ecs

// Bundle is an ordered group of components that are inserted together.
// Bundles may be nested, they are flattened in order on insertion.
type Bundle []any

func flattenBundles(dst []any, components []any) []any {
	for _, component := range components {
		if bundle, ok := component.(Bundle); ok {
			dst = flattenBundles(dst, bundle)
			continue
		}

		dst = append(dst, component)
	}

	return dst
}
