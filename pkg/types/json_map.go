package types

// JSONMap is a loosely-typed JSONB payload column.
type JSONMap map[string]any
