package byplay

import (
	"encoding/json"

	"github.com/domonda/go-errs"
	"github.com/domonda/go-types/notnull"
)

// encodeArgs serializes a positional argument list to the textual form
// stored in the args column. The engine treats this string as opaque; it
// is round-tripped verbatim between Schedule/ScheduleTo and the executor.
func encodeArgs(args []any) (notnull.JSON, error) {
	if args == nil {
		args = []any{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return notnull.JSON(""), errs.Errorf("marshal job args: %w", err)
	}
	return notnull.JSON(b), nil
}

// decodeArgs deserializes the args column back into a positional value
// list, the form handed to registered Func callables.
func decodeArgs(args notnull.JSON) ([]any, error) {
	var values []any
	if err := json.Unmarshal([]byte(args), &values); err != nil {
		return nil, errs.Errorf("unmarshal job args: %w", err)
	}
	return values, nil
}
