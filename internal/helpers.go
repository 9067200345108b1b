package internal

import "strconv"

// ContextValue returns the value stored under key with Set, or the zero value of T.
func ContextValue[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

// ParamID parses the path parameter name as a positive id. Any other value
// means nothing can live at that path, so the error is ErrNotFound.
func ParamID(c Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, ErrNotFound
	}
	return id, nil
}
